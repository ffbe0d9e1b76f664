package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"ledger/filter"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// field is a named optional string taken from a request body.
type field struct {
	name  string
	value *string
}

// requireFields reports the first absent or blank field. It returns false when the handler must stop.
func requireFields(c *gin.Context, fields ...field) bool {
	for _, f := range fields {
		if f.value == nil {
			Fail(c, KindMissingParameter, "Missing parameter: "+f.name)
			return false
		}
	}
	for _, f := range fields {
		if strings.TrimSpace(*f.value) == "" {
			Fail(c, KindEmptyParameter, "Empty parameter: "+f.name)
			return false
		}
	}
	return true
}

// requireList checks an array parameter is present, non-empty and has no blank entry.
func requireList(c *gin.Context, name string, values []string, present bool) bool {
	if !present {
		Fail(c, KindMissingParameter, "Missing parameter: "+name)
		return false
	}
	if len(values) == 0 {
		Fail(c, KindEmptyParameter, "Empty parameter: "+name)
		return false
	}
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			Fail(c, KindEmptyParameter, "Empty entry in parameter: "+name)
			return false
		}
	}
	return true
}

// bindJSON decodes the body, answering 400 on malformed input.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		Fail(c, KindMissingParameter, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func isEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

// firstInvalidEmail returns the first malformed address, or "".
func firstInvalidEmail(emails []string) string {
	for _, e := range emails {
		if !isEmail(e) {
			return e
		}
	}
	return ""
}

// normalizeEmail lowercases and trims an address.
func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// uniqueStrings keeps the first occurrence of each value.
func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// flexString accepts a JSON string or number.
type flexString struct {
	set   bool
	value string
}

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	f.set = true
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		f.value = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number")
	}
	f.value = n.String()
	return nil
}

func (f *flexString) ptr() *string {
	if f == nil || !f.set {
		return nil
	}
	return &f.value
}

// parseAmount parses a monetary amount.
func parseAmount(s string) (float64, error) {
	return filter.ParseAmount(strings.TrimSpace(s))
}

// parseID parses a positive row id.
func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(id), nil
}
