package models

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// upiIDPattern is local-part@handle: the local part starts alphanumeric and
// may contain '.', '_' and '-'; the handle is alphanumeric.
var upiIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*@[a-zA-Z0-9]+$`)

// ValidUPIID reports whether id is a syntactically valid UPI identifier
func ValidUPIID(id string) bool {
	return upiIDPattern.MatchString(id)
}

// UPIChallenge is an issued ownership challenge. The operator pays
// VerificationAmount to UPIID with VerificationCode as the payment note, then
// enters the code seen on the receiving side. It lives only for the duration
// of one verification flow.
type UPIChallenge struct {
	UPIID              string          `json:"upi_id"`
	QRData             string          `json:"qr_data"`
	VerificationCode   string          `json:"verification_code"`
	VerificationAmount decimal.Decimal `json:"verification_amount"`
	IssuedAt           time.Time       `json:"issued_at"`
}

// RestaurantInfo is the restaurant account as returned after a UPI change
type RestaurantInfo struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone,omitempty"`
	UPIID       string `json:"upi_id"`
	UPIVerified bool   `json:"upi_verified"`
}

// BuildUPIPayURI builds a pay-to request for the standard UPI deep link
func BuildUPIPayURI(upiID, payeeName string, amount decimal.Decimal, note string) string {
	q := url.Values{}
	q.Set("pa", upiID)
	if payeeName != "" {
		q.Set("pn", payeeName)
	}
	q.Set("am", amount.StringFixed(2))
	q.Set("cu", "INR")
	if note != "" {
		q.Set("tn", note)
	}

	// url.Values encodes spaces as '+', UPI apps expect %20
	return "upi://pay?" + strings.ReplaceAll(q.Encode(), "+", "%20")
}
