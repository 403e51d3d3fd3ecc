package pipeline

import (
	stderrors "errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/abbensid2/alltheplaces/pkg/errors"
	"github.com/abbensid2/alltheplaces/pkg/utils"
)

// FieldCleanUp trims and collapses whitespace in every string field.
type FieldCleanUp struct{}

func (FieldCleanUp) Name() string { return "field_clean_up" }

func (FieldCleanUp) Process(pc *Context) error {
	r := pc.Record
	r.Ref = utils.NormalizeWhitespace(r.Ref)
	for _, f := range []**string{
		&r.Name, &r.Brand, &r.BrandWikidata, &r.AddrFull, &r.City, &r.State,
		&r.Postcode, &r.Country, &r.Phone, &r.Website, &r.OpeningHours,
	} {
		*f = utils.CleanPtr(*f)
	}
	return nil
}

// PhoneCleanUp strips phone formatting. It runs after country resolution so
// North American numbers get their +1 prefix.
type PhoneCleanUp struct{}

func (PhoneCleanUp) Name() string { return "phone_clean_up" }

func (PhoneCleanUp) Process(pc *Context) error {
	r := pc.Record
	if r.Phone == nil {
		return nil
	}
	phone := utils.NormalizePhoneNumber(*r.Phone, r.CountryCode())
	r.Phone = &phone
	return nil
}

// RequiredFields rejects records without usable coordinates.
type RequiredFields struct {
	validate *validator.Validate
}

func NewRequiredFields() *RequiredFields {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequiredFields{validate: v}
}

func (*RequiredFields) Name() string { return "required_fields" }

func (s *RequiredFields) Process(pc *Context) error {
	const op = "pipeline.RequiredFields"

	err := s.validate.Struct(pc.Record)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.NewValidation(op, "cannot validate record", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return errors.NewIncompleteRecord(op, pc.Record.Ref, fields, err)
}
