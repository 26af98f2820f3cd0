package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/vitalix-dev/vitalix-bmi/internal/api"
	"github.com/vitalix-dev/vitalix-bmi/internal/engine"
	"github.com/vitalix-dev/vitalix-bmi/internal/server"
	"github.com/vitalix-dev/vitalix-bmi/internal/service"
	"github.com/vitalix-dev/vitalix-bmi/internal/vault"
	"github.com/vitalix-dev/vitalix-bmi/pkg/bmi"
	"github.com/vitalix-dev/vitalix-bmi/pkg/sdk"
)

func main() {
	fmt.Println("Starting Vitalix BMI Daemon...")

	dataDir := os.Getenv("VITALIX_DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}

	port := os.Getenv("VITALIX_PORT")
	if port == "" {
		port = "7101"
	}

	httpPort := os.Getenv("VITALIX_HTTP_PORT")
	if httpPort == "" {
		httpPort = "7102"
	}

	useTLS := os.Getenv("VITALIX_DISABLE_TLS") != "true"

	var masterKey []byte
	if k := os.Getenv("VITALIX_MASTER_KEY"); k != "" {
		if len(k) != 32 {
			log.Fatalf("VITALIX_MASTER_KEY must be exactly 32 bytes, got %d", len(k))
		}
		masterKey = []byte(k)
	}

	// 2. Initialize the storage engine
	var store sdk.BmiStore
	var memStore *engine.MemStore

	switch os.Getenv("VITALIX_ENGINE") {
	case "sqlite":
		dbPath := os.Getenv("VITALIX_DB_PATH")
		if dbPath == "" {
			dbPath = "./vitalix.db"
		}
		sqlStore, err := engine.OpenSQLStore(dbPath)
		if err != nil {
			log.Fatalf("Failed to open SQLite store: %v", err)
		}
		defer sqlStore.Close()
		store = sqlStore
		fmt.Printf("Engine started (SQLite at %s).\n", dbPath)

	default:
		persister, err := engine.NewPersistence(dataDir, masterKey)
		if err != nil {
			log.Fatalf("Failed to initialize persistence: %v", err)
		}
		snapshots, err := persister.LoadAll()
		if err != nil {
			log.Printf("Warning: Could not load existing data: %v", err)
		}
		memStore = engine.NewMemStore(snapshots, persister)
		store = memStore
		fmt.Printf("Engine started. Loaded %d owner snapshots.\n", len(snapshots))
	}

	// 3. Build the service and the TCP router
	svc := service.New(store)
	if threshold := os.Getenv("VITALIX_ADVISORY_THRESHOLD"); threshold != "" {
		cat, err := bmi.ParseCategory(threshold)
		if err != nil {
			log.Fatalf("Invalid VITALIX_ADVISORY_THRESHOLD: %v", err)
		}
		svc.Evaluator().AdvisoryThreshold = cat
		fmt.Printf("Advisory threshold set to %s.\n", cat)
	}
	router := server.NewRouter(svc)

	// 4. Setup TLS
	if useTLS {
		fmt.Println("Generating self-signed certificate for internal TLS...")
		cert, err := vault.GenerateSelfSignedCert()
		if err != nil {
			log.Fatalf("Failed to generate TLS certificate: %v", err)
		}
		router.SetCertificate(cert)
		fmt.Println("TLS encryption enabled.")
	} else {
		fmt.Println("TLS encryption disabled (VITALIX_DISABLE_TLS=true).")
	}

	// 5. Initialize the HTTP API
	h := &api.Handler{Svc: svc}
	r := gin.Default()

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	h.Routes(r.Group("/api"))

	// 6. Start servers
	go func() {
		fmt.Printf("HTTP API listening on :%s\n", httpPort)
		if err := r.Run(":" + httpPort); err != nil {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// 7. Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutdown signal received. Finalizing disk writes...")
		if memStore != nil {
			memStore.Wait()
		}
		fmt.Println("Persistence complete. Exiting.")
		os.Exit(0)
	}()

	// 8. Start the TCP server
	fmt.Printf("Vitalix Engine listening on :%s (TCP)\n", port)
	if err := router.Listen(port); err != nil {
		select {
		case <-sigChan:
		default:
			log.Fatalf("TCP Server failed: %v", err)
		}
	}
}
