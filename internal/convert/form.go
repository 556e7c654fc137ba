// Package convert turns user-entered forms into gateway requests.
package convert

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/and161185/educert/internal/errs"
	"github.com/and161185/educert/internal/model"
)

// Trait types written onto every issued certificate, in this order.
const (
	TraitIssueDate = "Issue Date"
	TraitCourseID  = "Course ID"
	TraitGrade     = "Grade"
	TraitStudent   = "Student"
)

const issueDateLayout = "2006-01-02"

// CertificateForm is what an institution fills in to issue a certificate.
type CertificateForm struct {
	StudentAddress string
	Title          string
	Description    string
	ImageURL       string
	IssueDate      string // YYYY-MM-DD; empty means today
	CourseID       string
	Grade          string
}

// Validate returns the first failing rule, wrapped in errs.ErrInvalidInput.
func (f CertificateForm) Validate() error {
	switch {
	case strings.TrimSpace(f.StudentAddress) == "":
		return invalid("student address is required")
	case strings.TrimSpace(f.Title) == "":
		return invalid("title is required")
	case strings.TrimSpace(f.Description) == "":
		return invalid("description is required")
	case strings.TrimSpace(f.CourseID) == "":
		return invalid("course ID is required")
	case strings.TrimSpace(f.Grade) == "":
		return invalid("grade is required")
	}
	if f.IssueDate != "" {
		if _, err := time.Parse(issueDateLayout, f.IssueDate); err != nil {
			return invalid("issue date must be YYYY-MM-DD")
		}
	}
	return nil
}

// ToMetadata validates the form and builds certificate metadata.
func (f CertificateForm) ToMetadata(now time.Time) (model.CertificateMetadata, error) {
	if err := f.Validate(); err != nil {
		return model.CertificateMetadata{}, err
	}
	issued := f.IssueDate
	if issued == "" {
		issued = now.UTC().Format(issueDateLayout)
	}
	m := model.CertificateMetadata{
		Title:       f.Title,
		Description: f.Description,
		Image:       f.ImageURL,
		Attributes: []model.Attribute{
			{TraitType: TraitIssueDate, Value: issued},
			{TraitType: TraitCourseID, Value: f.CourseID},
			{TraitType: TraitGrade, Value: f.Grade},
			{TraitType: TraitStudent, Value: f.StudentAddress},
		},
	}
	if err := model.ValidateMetadata(m); err != nil {
		return model.CertificateMetadata{}, err
	}
	return m, nil
}

// CampaignForm is what an institution fills in to start a crowdfund sale.
type CampaignForm struct {
	Price              string
	MinTokensSold      string
	MaxAmountPerWallet string
	EndTime            time.Time
	Recipient          string // empty means the connected address
}

// Validate returns the first failing rule, wrapped in errs.ErrInvalidInput.
func (f CampaignForm) Validate(now time.Time) error {
	if p, err := strconv.ParseFloat(strings.TrimSpace(f.Price), 64); err != nil || p <= 0 {
		return invalid("valid price is required")
	}
	if n, err := strconv.ParseInt(strings.TrimSpace(f.MinTokensSold), 10, 64); err != nil || n <= 0 {
		return invalid("minimum tokens sold is required")
	}
	if n, err := strconv.ParseInt(strings.TrimSpace(f.MaxAmountPerWallet), 10, 64); err != nil || n <= 0 {
		return invalid("maximum amount per wallet is required")
	}
	if f.EndTime.IsZero() {
		return invalid("end date is required")
	}
	if !f.EndTime.After(now) {
		return invalid("end date must be in the future")
	}
	return nil
}

// ToCampaign validates the form and builds a campaign starting now.
func (f CampaignForm) ToCampaign(now time.Time) (model.Campaign, error) {
	if err := f.Validate(now); err != nil {
		return model.Campaign{}, err
	}
	return model.Campaign{
		StartTime:          now.Unix(),
		EndTime:            f.EndTime.Unix(),
		Price:              strings.TrimSpace(f.Price),
		MinTokensSold:      strings.TrimSpace(f.MinTokensSold),
		MaxAmountPerWallet: strings.TrimSpace(f.MaxAmountPerWallet),
		Recipient:          strings.TrimSpace(f.Recipient),
	}, nil
}

// ParseEndTime accepts RFC3339, "YYYY-MM-DDTHH:MM" (local time) or a unix timestamp.
func ParseEndTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04", s, time.Local); err == nil {
		return t, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(n, 0), nil
	}
	return time.Time{}, invalid(fmt.Sprintf("cannot parse end time %q", s))
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %w", errs.ErrInvalidInput, errors.New(msg))
}
