package payfast

import "errors"

// PaymentStatus is the processor's payment_status field. It is a closed set;
// anything unrecognized is treated as pending.
type PaymentStatus string

const (
	PaymentComplete PaymentStatus = "COMPLETE"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentPending  PaymentStatus = "PENDING"
)

// ParsePaymentStatus maps a raw payment_status value onto PaymentStatus.
// Matching is exact; unknown or empty values yield PaymentPending.
func ParsePaymentStatus(raw string) PaymentStatus {
	switch PaymentStatus(raw) {
	case PaymentComplete:
		return PaymentComplete
	case PaymentFailed:
		return PaymentFailed
	default:
		return PaymentPending
	}
}

// Verification failures. Callers acknowledge the notification either way.
var (
	ErrSignatureMismatch = errors.New("payfast: signature verification failed")
	ErrMerchantMismatch  = errors.New("payfast: merchant id mismatch")
)

// Notification is a parsed ITN payload. Absent fields are empty strings.
type Notification struct {
	MerchantID         string
	MerchantPaymentID  string // m_payment_id
	ProcessorPaymentID string // pf_payment_id
	Status             PaymentStatus
	ItemName           string
	ItemDescription    string
	AmountGross        string
	AmountFee          string
	AmountNet          string
	CustomStr1         string // phone
	CustomStr2         string // referral name
	NameFirst          string
	NameLast           string
	Email              string
	CellNumber         string
	Token              string // recurring billing token
	Signature          string
}

// ParseNotification maps raw ITN fields into a Notification. It performs
// no verification.
func ParseNotification(fields map[string]string) Notification {
	return Notification{
		MerchantID:         fields["merchant_id"],
		MerchantPaymentID:  fields["m_payment_id"],
		ProcessorPaymentID: fields["pf_payment_id"],
		Status:             ParsePaymentStatus(fields["payment_status"]),
		ItemName:           fields["item_name"],
		ItemDescription:    fields["item_description"],
		AmountGross:        fields["amount_gross"],
		AmountFee:          fields["amount_fee"],
		AmountNet:          fields["amount_net"],
		CustomStr1:         fields["custom_str1"],
		CustomStr2:         fields["custom_str2"],
		NameFirst:          fields["name_first"],
		NameLast:           fields["name_last"],
		Email:              fields["email_address"],
		CellNumber:         fields["cell_number"],
		Token:              fields["token"],
		Signature:          fields[SignatureField],
	}
}

// Verifier checks inbound notifications against the merchant's passphrase
// and account id.
type Verifier struct {
	merchantID string
	signer     *Signer
}

// NewVerifier creates a Verifier for the configured merchant.
func NewVerifier(merchantID, passphrase string) *Verifier {
	return &Verifier{
		merchantID: merchantID,
		signer:     NewSigner(passphrase),
	}
}

// Verify checks the signature carried in fields, then the receiving merchant
// id, and returns the parsed notification. The notification is returned even
// when verification fails so callers can log its identifiers; it must not be
// trusted in that case. fields is not modified.
func (v *Verifier) Verify(fields map[string]string) (Notification, error) {
	signature := fields[SignatureField]

	unsigned := make(map[string]string, len(fields))
	for k, val := range fields {
		if k == SignatureField {
			continue
		}
		unsigned[k] = val
	}

	n := ParseNotification(fields)

	if !v.signer.Verify(unsigned, signature) {
		return n, ErrSignatureMismatch
	}
	if fields["merchant_id"] != v.merchantID {
		return n, ErrMerchantMismatch
	}
	return n, nil
}
