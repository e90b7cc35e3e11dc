package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/abgdnv/ordermanagement/internal/domain"
	"github.com/abgdnv/ordermanagement/internal/service"
	"github.com/shopspring/decimal"
)

type link struct {
	Href string `json:"href"`
}

type links map[string]link

type productModel struct {
	StockKeepingUnitID int64       `json:"stockKeepingUnitID"`
	Name               string      `json:"name"`
	Price              json.Number `json:"price"`
	CreationDate       time.Time   `json:"creationDate"`
	DeletionFlag       bool        `json:"deletionFlag"`
	Links              links       `json:"_links"`
}

type orderModel struct {
	OrderID         int64          `json:"orderID"`
	BuyerEmail      string         `json:"buyerEmail"`
	OrderPlacedTime time.Time      `json:"orderPlacedTime"`
	Products        []productModel `json:"products"`
	Links           links          `json:"_links"`
}

type collectionModel struct {
	Embedded map[string]any `json:"_embedded,omitempty"`
	Links    links          `json:"_links"`
}

type totalAmountModel struct {
	TotalAmount json.Number `json:"totalAmount"`
}

// linkBuilder renders absolute hrefs for the host the request was addressed to.
type linkBuilder struct {
	base string
}

// newLinkBuilder derives scheme and host from the request, preferring X-Forwarded-Proto and X-Forwarded-Host.
func newLinkBuilder(r *http.Request) linkBuilder {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := firstHeaderValue(r, "X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	host := r.Host
	if fwd := firstHeaderValue(r, "X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	return linkBuilder{base: scheme + "://" + host}
}

func firstHeaderValue(r *http.Request, name string) string {
	v, _, _ := strings.Cut(r.Header.Get(name), ",")
	return strings.TrimSpace(v)
}

func (b linkBuilder) href(format string, args ...any) link {
	return link{Href: b.base + fmt.Sprintf(format, args...)}
}

func (b linkBuilder) product(p domain.Product) productModel {
	return productModel{
		StockKeepingUnitID: p.ID,
		Name:               p.Name,
		Price:              decimalNumber(p.Price),
		CreationDate:       p.CreationDate,
		DeletionFlag:       p.DeletionFlag,
		Links: links{
			"self":     b.href("/products/%d", p.ID),
			"products": b.href("/products"),
		},
	}
}

func (b linkBuilder) order(d service.OrderDetails) orderModel {
	products := make([]productModel, 0, len(d.Products))
	for _, p := range d.Products {
		products = append(products, b.product(p))
	}
	return orderModel{
		OrderID:         d.Order.ID,
		BuyerEmail:      d.Order.BuyerEmail,
		OrderPlacedTime: d.Order.PlacedAt,
		Products:        products,
		Links: links{
			"self":   b.href("/orders/%d", d.Order.ID),
			"orders": b.href("/orders"),
		},
	}
}

func (b linkBuilder) productCollection(list []domain.Product, self string) collectionModel {
	c := collectionModel{Links: links{"self": link{Href: b.base + self}}}
	if len(list) > 0 {
		models := make([]productModel, 0, len(list))
		for _, p := range list {
			models = append(models, b.product(p))
		}
		c.Embedded = map[string]any{"productList": models}
	}
	return c
}

func (b linkBuilder) orderCollection(list []service.OrderDetails, self string) collectionModel {
	c := collectionModel{Links: links{"self": link{Href: b.base + self}}}
	if len(list) > 0 {
		models := make([]orderModel, 0, len(list))
		for _, d := range list {
			models = append(models, b.order(d))
		}
		c.Embedded = map[string]any{"orderList": models}
	}
	return c
}

// decimalNumber renders d as a JSON number without going through float64.
func decimalNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
