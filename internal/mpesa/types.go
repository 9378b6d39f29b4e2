package mpesa

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// STKPushRequest is the gateway's payment initiation wire format. The
// merchant shortcode appears as both BusinessShortCode and PartyB.
type STKPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPushResponse is the gateway's synchronous initiation acknowledgment.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// CallbackEnvelope is the asynchronous result notification posted by the
// gateway. Pointers distinguish an absent section from an empty one.
type CallbackEnvelope struct {
	Body *CallbackBody `json:"Body"`
}

type CallbackBody struct {
	StkCallback *StkCallback `json:"stkCallback"`
}

type StkCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID"`
	ResultCode        int               `json:"ResultCode"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata"`
}

type CallbackMetadata struct {
	Item []MetadataItem `json:"Item"`
}

// MetadataItem values are heterogeneous on the wire: receipt numbers arrive
// as strings, amounts and phone numbers as JSON numbers.
type MetadataItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value"`
}

// StringValue returns the named metadata item rendered as a string.
func (m *CallbackMetadata) StringValue(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	for _, it := range m.Item {
		if it.Name != name {
			continue
		}
		switch v := it.Value.(type) {
		case string:
			if v == "" {
				return "", false
			}
			return v, true
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		}
		return "", false
	}
	return "", false
}

// DecimalValue returns the named metadata item as a decimal amount.
func (m *CallbackMetadata) DecimalValue(name string) (decimal.Decimal, bool) {
	s, ok := m.StringValue(name)
	if !ok {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
