package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/medloop/aushadhi/internal/gst"
	invoicedomain "github.com/medloop/aushadhi/internal/invoice/domain"
)

type checkoutItem struct {
	ProductRef   string `json:"product_ref"`
	ProductName  string `json:"product_name"`
	HSNCode      string `json:"hsn_code"`
	BatchRef     string `json:"batch_ref"`
	Quantity     int64  `json:"quantity"`
	UnitPrice    int64  `json:"unit_price_paise"`
	Discount     int64  `json:"discount_paise"`
	DiscountBps  int64  `json:"discount_bps"`
	GSTRateBps   int64  `json:"gst_rate_bps"`
	TaxInclusion string `json:"tax_inclusion"`
}

type checkoutBody struct {
	SellerStateCode string         `json:"seller_state_code"`
	BuyerStateCode  string         `json:"buyer_state_code"`
	BuyerGSTIN      string         `json:"buyer_gstin"`
	CustomerID      *string        `json:"customer_id"`
	RoundToRupee    bool           `json:"round_to_rupee"`
	Items           []checkoutItem `json:"items"`
}

func (s *Server) Checkout(c *gin.Context) {
	tc, ok := s.tenant(c)
	if !ok {
		return
	}

	var body checkoutBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError("malformed request body"))
		return
	}

	req := invoicedomain.CheckoutRequest{
		SellerStateCode: body.SellerStateCode,
		BuyerStateCode:  body.BuyerStateCode,
		BuyerGSTIN:      body.BuyerGSTIN,
		RoundToRupee:    body.RoundToRupee,
		Items:           make([]gst.CartLine, 0, len(body.Items)),
	}
	if body.CustomerID != nil {
		id, err := snowflake.ParseString(*body.CustomerID)
		if err != nil {
			AbortWithError(c, invalidRequestError("invalid customer_id"))
			return
		}
		req.CustomerID = &id
	}
	for _, item := range body.Items {
		req.Items = append(req.Items, gst.CartLine{
			ProductRef:   item.ProductRef,
			ProductName:  item.ProductName,
			HSNCode:      item.HSNCode,
			BatchRef:     item.BatchRef,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			Discount:     item.Discount,
			DiscountBps:  item.DiscountBps,
			GSTRateBps:   item.GSTRateBps,
			TaxInclusion: gst.TaxInclusion(item.TaxInclusion),
		})
	}

	resp, err := s.invoiceSvc.Checkout(c.Request.Context(), tc, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
	tc, ok := s.tenant(c)
	if !ok {
		return
	}

	filter := invoicedomain.ListRequest{
		Status: invoicedomain.InvoiceStatus(strings.TrimSpace(c.Query("status"))),
		Type:   invoicedomain.InvoiceType(strings.TrimSpace(c.Query("type"))),
	}
	if from, err := parseDateQuery(c, "issued_from"); err == nil && from != nil {
		filter.IssuedFrom = from
	}
	if to, err := parseDateQuery(c, "issued_to"); err == nil && to != nil {
		filter.IssuedTo = to
	}

	invoices, err := s.invoiceSvc.List(c.Request.Context(), tc, filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": invoices})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	tc, ok := s.tenant(c)
	if !ok {
		return
	}
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	detail, err := s.invoiceSvc.GetByID(c.Request.Context(), tc, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": detail})
}

func (s *Server) CancelInvoice(c *gin.Context) {
	tc, ok := s.tenant(c)
	if !ok {
		return
	}
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	inv, err := s.invoiceSvc.Cancel(c.Request.Context(), tc, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": inv})
}

func (s *Server) pathID(c *gin.Context) (snowflake.ID, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := snowflake.ParseString(raw)
	if err != nil {
		AbortWithError(c, invalidRequestError("invalid id"))
		return 0, false
	}
	return id, true
}

func parseDateQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
