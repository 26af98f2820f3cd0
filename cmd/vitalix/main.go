package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/vitalix-dev/vitalix-bmi/pkg/bmi"
	"github.com/vitalix-dev/vitalix-bmi/pkg/schema"
	"github.com/vitalix-dev/vitalix-bmi/pkg/sdk"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	addr := os.Getenv("VITALIX_STORE_ADDR")
	if addr == "" {
		addr = "localhost:7101"
	}

	client, err := sdk.Connect(addr)
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", addr, err)
	}
	defer client.Close()

	command := strings.ToUpper(os.Args[1])
	args := os.Args[2:]

	switch command {
	case "COMPUTE":
		if len(args) < 4 {
			log.Fatal("Usage: vitalix COMPUTE <owner> <weight> <height> <permit>")
		}
		weight, werr := strconv.ParseFloat(args[1], 64)
		height, herr := strconv.ParseFloat(args[2], 64)
		permit, perr := strconv.ParseBool(args[3])
		if werr != nil || herr != nil || perr != nil {
			log.Fatal("weight and height must be numbers, permit must be true/false")
		}

		rep, err := client.Compute(args[0], bmi.Input{Weight: weight, Height: height, Permit: permit})
		if err != nil {
			log.Fatal(err)
		}
		for _, line := range rep.Lines {
			fmt.Println(line)
		}

	case "GET":
		if len(args) < 1 {
			log.Fatal("Usage: vitalix GET <owner>")
		}
		rec, err := client.GetRecord(args[0])
		if err != nil {
			log.Fatal(err)
		}
		printJSON(rec)

	case "DATA":
		if len(args) < 1 {
			log.Fatal("Usage: vitalix DATA <owner>")
		}
		msg, err := client.GetData(args[0])
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(msg)

	case "DEL":
		if len(args) < 1 {
			log.Fatal("Usage: vitalix DEL <owner>")
		}
		err := client.DeleteRecord(args[0])
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println("OK")

	case "SET_USER":
		if len(args) < 2 {
			log.Fatal("Usage: vitalix SET_USER <owner> <name>")
		}
		err := client.PutProfile(schema.Profile{Owner: args[0], Name: strings.Join(args[1:], " ")})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println("OK")

	case "PROFILE":
		if len(args) < 1 {
			log.Fatal("Usage: vitalix PROFILE <owner>")
		}
		p, err := client.GetProfile(args[0])
		if err != nil {
			log.Fatal(err)
		}
		printJSON(p)

	case "LIST":
		list, err := client.Owners()
		if err != nil {
			log.Fatal(err)
		}
		printJSON(list)

	case "PING":
		if err := client.Ping(); err != nil {
			log.Fatal(err)
		}
		fmt.Println("PONG")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}

func printUsage() {
	fmt.Println("Vitalix CLI - Interface for the Vitalix BMI daemon")
	fmt.Println("\nUsage:")
	fmt.Println("  vitalix COMPUTE <owner> <weight-kg> <height-cm> <permit>")
	fmt.Println("  vitalix GET <owner>")
	fmt.Println("  vitalix DATA <owner>")
	fmt.Println("  vitalix DEL <owner>")
	fmt.Println("  vitalix SET_USER <owner> <name>")
	fmt.Println("  vitalix PROFILE <owner>")
	fmt.Println("  vitalix LIST")
	fmt.Println("  vitalix PING")
	fmt.Println("\nEnvironment Variables:")
	fmt.Println("  VITALIX_STORE_ADDR    Address of the daemon (default: localhost:7101)")
	fmt.Println("  VITALIX_DISABLE_TLS   Set to true to disable TLS")
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(out))
}
