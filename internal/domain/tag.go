package domain

import (
	"strings"
)

// RejectionReasonOther is the reason code that requires a free-text reason.
const RejectionReasonOther = "other"

// RejectionTagPrefix starts every governance tag written on rejection.
const RejectionTagPrefix = "Rejected: "

// RejectionReason is one entry of the fixed rejection taxonomy.
type RejectionReason struct {
	Code  string
	Label string
}

// RejectionReasons is the coded rejection taxonomy. The "other" code takes a
// free-text reason instead of a label.
var RejectionReasons = []RejectionReason{
	{Code: "001", Label: "Data Quality Issues"},
	{Code: "002", Label: "Contains Sensitive Data"},
	{Code: "003", Label: "Duplicate Asset"},
	{Code: "004", Label: "Incomplete Metadata"},
	{Code: "005", Label: "Not Business Relevant"},
	{Code: "006", Label: "Retention Expired"},
	{Code: RejectionReasonOther, Label: "Other"},
}

// RejectRequest holds parameters for rejecting an asset.
type RejectRequest struct {
	ReasonCode string
	OtherText  string
}

// Validate checks that the request names a known reason, and that "other"
// carries a non-blank free-text reason.
func (r *RejectRequest) Validate() error {
	if strings.TrimSpace(r.ReasonCode) == "" {
		return ErrValidation("rejection reason is required")
	}
	if _, ok := lookupReason(r.ReasonCode); !ok {
		return ErrValidation("unknown rejection reason %q", r.ReasonCode)
	}
	if r.ReasonCode == RejectionReasonOther && strings.TrimSpace(r.OtherText) == "" {
		return ErrValidation("a reason text is required when the reason is %q", RejectionReasonOther)
	}
	return nil
}

// ReasonText returns the human-readable reason sent to the governance service.
func (r *RejectRequest) ReasonText() string {
	if r.ReasonCode == RejectionReasonOther {
		return strings.TrimSpace(r.OtherText)
	}
	reason, _ := lookupReason(r.ReasonCode)
	return reason.Label
}

// Tag composes the governance tag persisted on the asset after rejection.
// Free-text reasons are truncated to their first two words.
func (r *RejectRequest) Tag() string {
	if r.ReasonCode == RejectionReasonOther {
		words := strings.Fields(r.OtherText)
		if len(words) > 2 {
			words = words[:2]
		}
		return RejectionTagPrefix + strings.Join(words, " ")
	}
	return RejectionTagPrefix + r.ReasonText()
}

func lookupReason(code string) (RejectionReason, bool) {
	for _, r := range RejectionReasons {
		if r.Code == code {
			return r, true
		}
	}
	return RejectionReason{}, false
}

// AppendTag returns tags with tag appended unless already present.
func AppendTag(tags []string, tag string) []string {
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	out := make([]string, 0, len(tags)+1)
	out = append(out, tags...)
	return append(out, tag)
}
