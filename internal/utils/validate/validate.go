package validate

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"interviewassistant/api"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldErrors maps a candidate_* field name to a readable problem.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, f[k]))
	}
	return "invalid candidate info: " + strings.Join(parts, "; ")
}

var jsonNames = map[string]string{
	"Name":  "candidate_name",
	"Email": "candidate_email",
	"Phone": "candidate_phone",
}

// CandidateInfo checks the fields the service requires before generating questions.
func CandidateInfo(info api.CandidateInfo) error {
	info.Name = strings.TrimSpace(info.Name)
	info.Email = strings.TrimSpace(info.Email)
	info.Phone = strings.TrimSpace(info.Phone)

	err := validate.Struct(info)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := FieldErrors{}
	for _, fe := range verrs {
		out[jsonNames[fe.Field()]] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return "is invalid"
	}
}

// ResumeExtensions lists the accepted résumé file types.
var ResumeExtensions = []string{".pdf", ".docx"}

// ResumeFile checks the file name and size before anything is uploaded.
func ResumeFile(filename string, size int) error {
	ext := strings.ToLower(filepath.Ext(filename))
	accepted := false
	for _, e := range ResumeExtensions {
		if ext == e {
			accepted = true
			break
		}
	}
	if !accepted {
		return fmt.Errorf("unsupported file type %q, expected one of %s", ext, strings.Join(ResumeExtensions, ", "))
	}
	if size == 0 {
		return errors.New("file is empty")
	}
	return nil
}

// MissingFieldName maps the service's missing-field names to CandidateInfo json names.
func MissingFieldName(field string) string {
	f := strings.ToLower(strings.TrimSpace(field))
	f = strings.TrimPrefix(f, "candidate_")
	switch f {
	case "name", "full_name":
		return "candidate_name"
	case "email":
		return "candidate_email"
	case "phone", "phone_number":
		return "candidate_phone"
	default:
		return field
	}
}
