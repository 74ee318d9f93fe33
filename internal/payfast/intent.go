package payfast

import "strings"

// Hosted payment page endpoints.
const (
	LiveProcessURL    = "https://www.payfast.co.za/eng/process"
	SandboxProcessURL = "https://sandbox.payfast.co.za/eng/process"
)

// Fixed subscription parameters: recurring billing, monthly, until cancelled.
const (
	subscriptionTypeRecurring = "1"
	billingCycleMonthly       = "3"
	cyclesUntilCancelled      = "0"
)

// DefaultLastName is used when the subscriber's name has no last part.
const DefaultLastName = "Member"

// MerchantConfig carries the merchant account and callback settings the
// builder and verifier need. It is supplied at construction so tests can use
// fixtures instead of process environment.
type MerchantConfig struct {
	MerchantID  string
	MerchantKey string
	Passphrase  string

	// ProcessURL is the hosted payment page. Empty means LiveProcessURL.
	ProcessURL string
	ReturnURL  string
	CancelURL  string
	NotifyURL  string

	Amount          string
	ItemName        string
	ItemDescription string
}

// Subscriber is the data captured by the membership form.
type Subscriber struct {
	Name         string
	Email        string
	Phone        string
	BodyGoals    string
	ReferralName string
}

// IntentBuilder turns a Subscriber into a signed redirect to the processor.
type IntentBuilder struct {
	cfg    MerchantConfig
	signer *Signer
}

// NewIntentBuilder creates an IntentBuilder for the given merchant settings.
func NewIntentBuilder(cfg MerchantConfig) *IntentBuilder {
	if cfg.ProcessURL == "" {
		cfg.ProcessURL = LiveProcessURL
	}
	return &IntentBuilder{
		cfg:    cfg,
		signer: NewSigner(cfg.Passphrase),
	}
}

// Params returns the full signed parameter set for sub. The signature is
// computed over every other field and appended last. Business fields are
// not validated here.
func (b *IntentBuilder) Params(sub Subscriber) *ParamSet {
	first, last := SplitName(sub.Name)

	p := NewParamSet()
	p.Set("merchant_id", b.cfg.MerchantID)
	p.Set("merchant_key", b.cfg.MerchantKey)
	p.Set("return_url", b.cfg.ReturnURL)
	p.Set("cancel_url", b.cfg.CancelURL)
	p.Set("notify_url", b.cfg.NotifyURL)
	p.Set("name_first", first)
	p.Set("name_last", last)
	p.Set("email_address", sub.Email)
	p.Set("cell_number", sub.Phone)
	p.Set("custom_str1", sub.Phone)
	p.Set("custom_str2", sub.ReferralName)
	p.Set("custom_str3", sub.BodyGoals)
	p.Set("amount", b.cfg.Amount)
	p.Set("item_name", b.cfg.ItemName)
	p.Set("item_description", b.cfg.ItemDescription)
	p.Set("subscription_type", subscriptionTypeRecurring)
	p.Set("billing_cycle", billingCycleMonthly)
	p.Set("cycles", cyclesUntilCancelled)

	p.Set(SignatureField, b.signer.Sign(p.Map()))
	return p
}

// RedirectURL returns the hosted payment page URL carrying the signed
// parameters for sub.
func (b *IntentBuilder) RedirectURL(sub Subscriber) string {
	return b.cfg.ProcessURL + "?" + b.Params(sub).Encode()
}

// SplitName splits a full name on its first space. Everything after the
// first space is the last name; when there is nothing after it the last
// name is DefaultLastName.
func SplitName(name string) (first, last string) {
	first, last, _ = strings.Cut(name, " ")
	if last == "" {
		last = DefaultLastName
	}
	return first, last
}
