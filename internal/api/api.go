package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vitalix-dev/vitalix-bmi/internal/service"
	"github.com/vitalix-dev/vitalix-bmi/pkg/bmi"
)

type Handler struct {
	Svc *service.Service
}

// Routes registers the API endpoints on a gin group.
func (h *Handler) Routes(g *gin.RouterGroup) {
	g.POST("/compute", h.Compute)
	g.GET("/records", h.ListOwners)
	g.GET("/records/:owner", h.GetRecord)
	g.DELETE("/records/:owner", h.DeleteRecord)
	g.POST("/profiles", h.SetUser)
	g.GET("/profiles/:owner", h.GetProfile)
	g.GET("/audit", h.Audit)
}

func (h *Handler) Compute(c *gin.Context) {
	var input struct {
		Owner  string  `json:"owner" binding:"required"`
		Weight float64 `json:"weight"`
		Height float64 `json:"height"`
		Permit bool    `json:"permit"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rep, err := h.Svc.Compute(input.Owner, bmi.Input{
		Weight: input.Weight,
		Height: input.Height,
		Permit: input.Permit,
	})
	if err != nil {
		if errors.Is(err, bmi.ErrInvalidInput) || errors.Is(err, service.ErrMissingOwner) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bmi":      rep.BMI,
		"rounded":  rep.Rounded,
		"category": rep.Category,
		"lines":    rep.Lines,
		"stored":   rep.Record != nil,
	})
}

func (h *Handler) ListOwners(c *gin.Context) {
	owners, err := h.Svc.Owners()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, owners)
}

func (h *Handler) GetRecord(c *gin.Context) {
	owner := c.Param("owner")
	rec, err := h.Svc.Record(owner)
	if err != nil {
		if service.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No Data Found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) DeleteRecord(c *gin.Context) {
	owner := c.Param("owner")
	permit := c.Query("permit") == "true"

	err := h.Svc.DeleteData(owner, permit)
	if err != nil {
		if errors.Is(err, service.ErrPermissionRequired) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		if service.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No Data Found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) SetUser(c *gin.Context) {
	var input struct {
		Owner string `json:"owner" binding:"required"`
		Name  string `json:"name" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.Svc.SetUser(input.Owner, input.Name)
	if err != nil {
		if service.IsConflict(err) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) GetProfile(c *gin.Context) {
	owner := c.Param("owner")
	p, err := h.Svc.Profile(owner)
	if err != nil {
		if service.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) Audit(c *gin.Context) {
	c.JSON(http.StatusOK, h.Svc.RecentAudit(50))
}
