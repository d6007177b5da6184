package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// MaxBodyBytes caps request bodies. Full-list replacements are the largest
// payloads the API accepts.
const MaxBodyBytes = 4 << 20

// validate caches struct metadata across requests; it is safe for concurrent use.
var validate = validator.New()

// DecodeJSON decodes the request body into v. Numbers are kept as
// json.Number so free-form task fields round-trip without float rounding.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.UseNumber()

	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	if dec.More() {
		return fmt.Errorf("request body must contain a single JSON value")
	}
	return nil
}

// ValidateRequest checks v against its `validate` struct tags using the
// package's shared validator.
func ValidateRequest(v interface{}) error {
	return validate.Struct(v)
}
