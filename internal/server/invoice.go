package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/ksheermitra/backend/internal/invoice/domain"
	"github.com/ksheermitra/backend/pkg/db/pagination"
)

type generateMonthlyInvoiceRequest struct {
	CustomerID string `json:"customer_id"`
	Month      string `json:"month"`
}

func (s *Server) GenerateMonthlyInvoice(c *gin.Context) {
	var req generateMonthlyInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.GenerateMonthlyInvoice(c.Request.Context(), strings.TrimSpace(req.CustomerID), strings.TrimSpace(req.Month))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		pagination.Pagination
		CustomerID string `form:"customer_id"`
		Month      string `form:"month"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoiceRequest{
		CustomerID: strings.TrimSpace(query.CustomerID),
		Month:      strings.TrimSpace(query.Month),
		PageToken:  query.PageToken,
		PageSize:   int32(query.PageSize),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	item, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) DownloadInvoice(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	doc, err := s.invoiceSvc.Download(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(doc.FileName))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

type triggerMonthlyInvoicesRequest struct {
	Month string `json:"month"`
}

// TriggerMonthlyInvoices runs the monthly invoice job now. An empty body bills
// the previous month.
func (s *Server) TriggerMonthlyInvoices(c *gin.Context) {
	if s.trigger == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	var req triggerMonthlyInvoicesRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	resp, err := s.trigger.TriggerMonthlyInvoices(c.Request.Context(), strings.TrimSpace(req.Month))
	if err != nil && resp.Month == "" {
		AbortWithError(c, err)
		return
	}

	status := http.StatusOK
	body := gin.H{"data": resp}
	if err != nil {
		// Per-customer failures still produce a batch summary.
		status = http.StatusMultiStatus
		body["error"] = err.Error()
	}
	c.JSON(status, body)
}
