package gateway

import "github.com/krishnacouponstore/code-sub002/internal/domain"

// statusTable is the fixed translation from the gateway's raw status
// vocabulary to the internal tri-state. Unrecognized codes deliberately
// fall through to failed: never credit on ambiguity.
var statusTable = map[string]domain.TopupStatus{
	"COMPLETED": domain.TopupSuccess,
	"SUCCESS":   domain.TopupSuccess,
	"Initiated": domain.TopupPending,
	"PENDING":   domain.TopupPending,
	"FAILED":    domain.TopupFailed,
	"Fail":      domain.TopupFailed,
	"Reversed":  domain.TopupFailed,
}

// MapStatus translates a raw gateway status code into the internal
// tri-state. Total: every input maps to something, unknown inputs to failed.
func MapStatus(raw string) domain.TopupStatus {
	if s, ok := statusTable[raw]; ok {
		return s
	}
	return domain.TopupFailed
}

// methodTable translates gateway pay-mode codes (the gateway emits both
// numeric codes and names depending on the endpoint).
var methodTable = map[string]domain.PayMethod{
	"1":    domain.PayIMPS,
	"2":    domain.PayNEFT,
	"3":    domain.PayRTGS,
	"4":    domain.PayUPI,
	"IMPS": domain.PayIMPS,
	"NEFT": domain.PayNEFT,
	"RTGS": domain.PayRTGS,
	"UPI":  domain.PayUPI,
}

// MapPaymentMethod translates a raw gateway pay-mode code, defaulting to UPI
// when absent or unrecognized.
func MapPaymentMethod(raw string) domain.PayMethod {
	if m, ok := methodTable[raw]; ok {
		return m
	}
	return domain.PayUPI
}
