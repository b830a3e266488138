package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/acham/internal/middleware"
	"github.com/example/acham/internal/models"
	"github.com/example/acham/internal/services"
	"github.com/example/acham/internal/utils"
)

// OrderHandler handles order placement and retrieval.
type OrderHandler struct {
	db       *gorm.DB
	currency *services.CurrencyService
	telegram *services.TelegramService
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(db *gorm.DB, currency *services.CurrencyService, telegram *services.TelegramService) *OrderHandler {
	return &OrderHandler{db: db, currency: currency, telegram: telegram}
}

type orderItemRequest struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductSKU   string          `json:"product_sku"`
	Color        string          `json:"color"`
	Size         string          `json:"size"`
	PreviewImage string          `json:"preview_image"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
}

type orderAddressRequest struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Country      string `json:"country"`
	City         string `json:"city"`
	Region       string `json:"region"`
	PostalCode   string `json:"postal_code"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	Company      string `json:"company"`
}

type createOrderRequest struct {
	Items           []orderItemRequest   `json:"items"`
	ShippingAddress *orderAddressRequest `json:"shipping_address"`
	BillingAddress  *orderAddressRequest `json:"billing_address"`
	ShippingMethod  string               `json:"shipping_method"`
	CustomerEmail   string               `json:"customer_email"`
	CustomerPhone   string               `json:"customer_phone"`
	Notes           string               `json:"notes"`
	DiscountAmount  decimal.Decimal      `json:"discount_amount"`
}

// Create places a new order in pending_payment. The shipping country decides
// the display currency: Uzbekistan orders price in UZS, everything else in
// USD. Totals are recomputed server-side from the line items; client-supplied
// totals are ignored.
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if len(req.Items) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "order must contain at least one item")
	}
	if req.ShippingAddress == nil || req.ShippingAddress.Country == "" {
		return fiber.NewError(fiber.StatusBadRequest, "shipping address with country is required")
	}

	currency := "USD"
	if services.IsUzbekistan(req.ShippingAddress.Country) {
		currency = "UZS"
	}

	shippingFee, err := h.currency.DeliveryFeeFor(c.UserContext(), currency)
	if err != nil {
		return err
	}

	order := models.Order{
		PublicID:       uuid.New(),
		Number:         services.GenerateOrderNumber(),
		UserID:         &userID,
		Status:         models.OrderStatusPendingPayment,
		Currency:       currency,
		ShippingAmount: shippingFee,
		DiscountAmount: req.DiscountAmount,
		ShippingMethod: req.ShippingMethod,
		CustomerEmail:  req.CustomerEmail,
		CustomerPhone:  req.CustomerPhone,
		Notes:          req.Notes,
		PlacedAt:       time.Now(),
	}

	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "item quantity must be positive")
		}
		orderItem := models.OrderItem{
			ProductName:  item.ProductName,
			ProductSKU:   item.ProductSKU,
			Color:        item.Color,
			Size:         item.Size,
			PreviewImage: item.PreviewImage,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
		}
		if item.ProductID != "" {
			if productID, err := uuid.Parse(item.ProductID); err == nil {
				orderItem.ProductID = &productID
			}
		}
		order.Items = append(order.Items, orderItem)
	}

	order.Addresses = append(order.Addresses, addressFromRequest(*req.ShippingAddress, models.AddressTypeShipping))
	if req.BillingAddress != nil {
		order.Addresses = append(order.Addresses, addressFromRequest(*req.BillingAddress, models.AddressTypeBilling))
	}

	services.RecalculateTotals(&order)

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		return tx.Create(&models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.OrderStatusPendingPayment,
			Note:      "Order placed",
			ChangedBy: &userID,
		}).Error
	})
	if err != nil {
		return err
	}

	if h.telegram != nil {
		go func() {
			if err := h.telegram.NotifyNewOrder(services.OrderNotification{
				OrderNumber:   order.Number,
				TotalAmount:   order.TotalAmount,
				Currency:      order.Currency,
				TotalItems:    order.TotalItems,
				CustomerPhone: order.CustomerPhone,
				CustomerEmail: order.CustomerEmail,
			}); err != nil {
				log.Printf("[Order] telegram notification failed for order %s: %v", order.Number, err)
			}
		}()
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"order":   order,
	})
}

// List returns the caller's orders, newest first.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	p := utils.ParsePagination(c)

	query := h.db.Model(&models.Order{}).Where("user_id = ?", userID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.
		Preload("Items").
		Order("created_at DESC").
		Limit(p.Limit).Offset(p.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"orders":  orders,
		"total":   total,
		"page":    p.Page,
		"limit":   p.Limit,
	})
}

// Get returns one of the caller's orders by public id, with items, addresses
// and status history.
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	publicID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	var order models.Order
	if err := h.db.
		Preload("Items").
		Preload("Addresses").
		Preload("StatusHistory").
		Where("public_id = ? AND user_id = ?", publicID, userID).
		First(&order).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"order":   order,
	})
}

func addressFromRequest(req orderAddressRequest, addressType string) models.OrderAddress {
	return models.OrderAddress{
		AddressType:  addressType,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		Country:      req.Country,
		City:         req.City,
		Region:       req.Region,
		PostalCode:   req.PostalCode,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		Company:      req.Company,
	}
}
