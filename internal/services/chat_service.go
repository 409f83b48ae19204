package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"luxe/internal/apperror"
	"luxe/internal/models"
	"luxe/internal/repositories"
	"luxe/pkg/gemini"

	"github.com/shopspring/decimal"
)

const (
	chatSearchLimit   = 10
	chatFallbackLimit = 5
	maxKeywords       = 10
)

var fashionKeywords = []string{
	"shirt", "t-shirt", "tshirt", "dress", "jeans", "pants", "jacket", "coat",
	"shoes", "sneakers", "boots", "sandals", "heels",
	"bag", "purse", "handbag", "backpack",
	"accessories", "watch", "sunglasses", "belt",
	"men", "women", "kids", "boy", "girl",
	"casual", "formal", "party", "office", "wedding",
	"cotton", "silk", "denim", "leather",
	"black", "white", "blue", "red", "green", "pink", "brown",
	"small", "medium", "large", "xl", "xxl",
	"cheap", "affordable", "premium", "luxury", "discount", "sale", "offer",
	"summer", "winter", "spring", "autumn",
	"kurta", "saree", "lehenga", "ethnic", "traditional", "western",
	"floral", "striped", "printed", "plain", "solid",
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true, "not": true,
	"you": true, "all": true, "can": true, "had": true, "her": true, "was": true,
	"one": true, "our": true, "out": true, "has": true, "have": true, "been": true,
	"some": true, "what": true, "when": true, "who": true, "will": true, "more": true,
	"want": true, "looking": true, "need": true, "show": true, "give": true, "find": true,
	"get": true, "any": true, "something": true, "anything": true, "please": true,
	"thanks": true, "thank": true, "hello": true, "help": true, "like": true, "about": true,
}

// Generator produces text for a prompt. *gemini.Client implements it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChatProduct is the compact product view embedded in the prompt.
type ChatProduct struct {
	Name          string   `json:"name"`
	Price         string   `json:"price"`
	OriginalPrice *string  `json:"originalPrice"`
	Category      string   `json:"category"`
	Sizes         []string `json:"sizes"`
	Colors        []string `json:"colors"`
	Stock         string   `json:"stock"`
	Discount      *string  `json:"discount"`
	Description   string   `json:"description"`
}

// ChatReply is the assistant's answer to one message.
type ChatReply struct {
	Text          string   `json:"text"`
	KeywordsUsed  []string `json:"keywordsUsed"`
	ProductsFound int      `json:"productsFound"`
	Fallback      bool     `json:"fallback"`
}

// ChatService answers shopper questions from the live catalog.
type ChatService struct {
	products  repositories.ProductRepository
	generator Generator
}

// NewChatService creates a new ChatService.
func NewChatService(products repositories.ProductRepository, generator Generator) *ChatService {
	return &ChatService{
		products:  products,
		generator: generator,
	}
}

// ExtractKeywords picks search terms out of a free-text message: known
// fashion words found anywhere in it, then any other word of three or more
// letters that is not a stop word. At most ten are returned.
func ExtractKeywords(message string) []string {
	lower := strings.ToLower(message)

	keywords := make([]string, 0, maxKeywords)
	seen := make(map[string]bool)
	for _, kw := range fashionKeywords {
		if strings.Contains(lower, kw) {
			keywords = append(keywords, kw)
			seen[kw] = true
		}
	}
	for _, word := range strings.Fields(lower) {
		if len(word) < 3 || stopWords[word] || seen[word] {
			continue
		}
		keywords = append(keywords, word)
		seen[word] = true
	}

	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return keywords
}

func formatRupees(d decimal.Decimal) string {
	s := d.String()
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i:]
	}
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return "₹" + sign + b.String() + frac
}

func toChatProduct(p models.Product) ChatProduct {
	cp := ChatProduct{
		Name:        p.Name,
		Price:       formatRupees(p.Price),
		Category:    string(p.Category),
		Sizes:       p.Sizes,
		Colors:      p.Colors,
		Stock:       "Out of Stock",
		Description: p.Description,
	}
	if cp.Category == "" {
		cp.Category = "General"
	}
	if cp.Sizes == nil {
		cp.Sizes = []string{}
	}
	if cp.Colors == nil {
		cp.Colors = []string{}
	}
	if p.InStock {
		cp.Stock = "In Stock"
	}
	if p.OriginalPrice.Valid && p.OriginalPrice.Decimal.IsPositive() {
		orig := formatRupees(p.OriginalPrice.Decimal)
		cp.OriginalPrice = &orig
	}
	if p.Discount > 0 {
		d := fmt.Sprintf("%d%% off", p.Discount)
		cp.Discount = &d
	}
	if r := []rune(cp.Description); len(r) > 100 {
		cp.Description = string(r[:100])
	}
	return cp
}

// findProducts matches the keywords against the catalog and falls back to
// a handful of catalog items when nothing matches.
func (s *ChatService) findProducts(ctx context.Context, keywords []string) ([]ChatProduct, error) {
	found, err := s.products.SearchAny(ctx, keywords, chatSearchLimit)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		found, err = s.products.Top(ctx, chatFallbackLimit)
		if err != nil {
			return nil, err
		}
	}
	products := make([]ChatProduct, 0, len(found))
	for _, p := range found {
		products = append(products, toChatProduct(p))
	}
	return products, nil
}

func buildPrompt(message string, products []ChatProduct) string {
	inventory := "No products currently available in the searched category."
	if len(products) > 0 {
		if b, err := json.MarshalIndent(products, "", "  "); err == nil {
			inventory = string(b)
		}
	}

	return `You are a helpful and friendly sales assistant for LUXE, a premium fashion e-commerce store in India.

IMPORTANT: Answer based ONLY on the following product availability from our database. Do not make up products that are not listed below.

## Current Product Inventory (from database):
` + inventory + `

## Your Guidelines:
1. If a user asks about a specific product we have in the inventory above, share its details including price, available sizes, colors, and any discounts.
2. If we don't have what they're looking for in our current inventory, politely say so and suggest browsing our website for more options.
3. Provide styling tips when relevant to the products shown.
4. Be concise but friendly - use emojis sparingly (1-2 per response max).
5. For orders, returns, or shipping questions, mention:
   - Free shipping on orders over ₹999
   - Easy 30-day returns
   - Cash on Delivery available
6. Always encourage users to visit our website to see the full collection.
7. If asked about price, be specific with the ₹ amounts shown above.
8. Never hallucinate products that aren't in the inventory list above.

## User's Question:
` + message + `

## Your Response (be helpful, accurate, and friendly):`
}

func discountSuffix(p ChatProduct) string {
	if p.Discount == nil {
		return ""
	}
	return " (" + *p.Discount + ")"
}

func firstN(products []ChatProduct, n int) []ChatProduct {
	if len(products) > n {
		return products[:n]
	}
	return products
}

// FallbackReply builds a canned answer from the product list when the
// generator cannot be used.
func FallbackReply(message string, products []ChatProduct) string {
	lower := strings.ToLower(message)

	if len(products) == 0 {
		return "Hi there! 👋 I found some products that might interest you in our store. Please browse our collection at LUXE for the latest fashion! We offer free shipping on orders over ₹999 and easy 30-day returns."
	}

	containsAny := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}

	var lines []string
	switch {
	case containsAny("price", "cost", "how much"):
		for _, p := range firstN(products, 3) {
			lines = append(lines, "• "+p.Name+": "+p.Price+discountSuffix(p))
		}
		return "Here are some products with prices:\n\n" + strings.Join(lines, "\n") + "\n\nWould you like more details on any of these?"
	case containsAny("dress", "shirt", "jeans"):
		for _, p := range firstN(products, 3) {
			lines = append(lines, "• "+p.Name+" - "+p.Price+" ("+p.Category+")")
		}
		return "Great choice! Here's what we have:\n\n" + strings.Join(lines, "\n") + "\n\nAll items come with free shipping over ₹999! 🛍️"
	}

	for _, p := range firstN(products, 5) {
		lines = append(lines, "• "+p.Name+": "+p.Price+discountSuffix(p)+" - "+p.Stock)
	}
	return "Hi! 👋 Here's what we have in stock:\n\n" + strings.Join(lines, "\n") +
		"\n\nFeel free to ask about any specific product! We offer:\n• Free shipping on orders over ₹999\n• Easy 30-day returns\n• Cash on Delivery available"
}

// Reply answers message using matching catalog products. Generator
// failures other than a missing configuration produce a canned reply
// instead of an error.
func (s *ChatService) Reply(ctx context.Context, message string) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperror.Validation("Message is required")
	}
	if s.generator == nil {
		return nil, apperror.Unavailable(gemini.ErrNotConfigured, "AI service not configured.")
	}

	keywords := ExtractKeywords(message)
	log.Printf("Chat keywords extracted: %v", keywords)

	products, err := s.findProducts(ctx, keywords)
	if err != nil {
		return nil, err
	}
	log.Printf("Found %d relevant products for chat context", len(products))

	reply := &ChatReply{KeywordsUsed: keywords, ProductsFound: len(products)}
	text, err := s.generator.Generate(ctx, buildPrompt(message, products))
	switch {
	case errors.Is(err, gemini.ErrNotConfigured):
		return nil, apperror.Unavailable(err, "AI service not configured.")
	case err != nil:
		log.Printf("Chat generator failed, using fallback reply: %v", err)
		reply.Text = FallbackReply(message, products)
		reply.Fallback = true
	default:
		reply.Text = text
	}
	return reply, nil
}
