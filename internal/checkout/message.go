package checkout

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/shopspring/decimal"
)

// ComposeMessage renders the order summary sent to the shop owner.
func ComposeMessage(items []cart.Item, a Address) string {
	var b strings.Builder
	b.WriteString("Hello! I would like to place an order:\n\n")

	total := decimal.Zero
	for i, it := range items {
		line := it.LineTotal()
		total = total.Add(line)
		fmt.Fprintf(&b, "%d. %s x %d = Rs %s\n", i+1, it.Name, it.Quantity, line.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: Rs %s\n", total.StringFixed(2))

	b.WriteString("\nDelivery details:\n")
	fmt.Fprintf(&b, "Name: %s\n", a.Name)
	fmt.Fprintf(&b, "Mobile: %s\n", a.Phone)
	fmt.Fprintf(&b, "Address: %s, %s\n", a.HouseNumber, a.Area)
	fmt.Fprintf(&b, "%s, %s - %s", a.City, a.State, a.Pincode)
	return b.String()
}

var mobileUA = regexp.MustCompile(`(?i)android|iphone|ipad|ipod|mobile`)

// IsMobile is a coarse user-agent check.
func IsMobile(userAgent string) bool { return mobileUA.MatchString(userAgent) }

// DeepLink opens the messaging app on mobile and the web client elsewhere.
func DeepLink(phone, message, userAgent string) string {
	phone = digitsOnly(phone)
	text := url.QueryEscape(message)
	if IsMobile(userAgent) {
		return fmt.Sprintf("https://wa.me/%s?text=%s", phone, text)
	}
	return fmt.Sprintf("https://web.whatsapp.com/send?phone=%s&text=%s", phone, text)
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
