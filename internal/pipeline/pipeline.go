/*
Package pipeline sends one recruitment email.

A send renders the template, reads the resume, picks a subject, composes the
message, delivers it and records the attempt. Exactly one activity record is
written for every attempt that passes request validation, whatever step fails.
*/
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	"github.com/oarkflow/recruiter/internal/activity"
	"github.com/oarkflow/recruiter/internal/config"
	"github.com/oarkflow/recruiter/internal/delivery"
	"github.com/oarkflow/recruiter/internal/message"
	"github.com/oarkflow/recruiter/internal/ollama"
	"github.com/oarkflow/recruiter/internal/subject"
	"github.com/oarkflow/recruiter/internal/tmpl"
)

// Subjects recorded when a send fails before a subject is chosen.
const (
	FailedTemplateSubject   = "Failed - Template Error"
	FailedAttachmentSubject = "Failed - File Not Found"
)

// ErrValidation is wrapped by request validation failures.
var ErrValidation = errors.New("validation error")

// ValidationError lists the request fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Request describes one email to send.
type Request struct {
	RecipientEmail string `name:"recipient email" validate:"required,email"`
	RecipientName  string `name:"recipient name"`
	CompanyName    string `name:"company"`
	Bcc            string `name:"bcc email" validate:"omitempty,email"`
	CustomSubject  string `name:"subject"`
	ResumePath     string `name:"resume" validate:"required"`

	// Variant and Template override the configured template for this send.
	Variant  tmpl.Variant `name:"variant"`
	Template string       `name:"template"`
}

// Stage names a step of a send.
type Stage string

const (
	StageRender     Stage = "render"
	StageAttachment Stage = "attachment"
	StageSubject    Stage = "subject"
	StageCompose    Stage = "compose"
	StageDeliver    Stage = "deliver"
	StageRecord     Stage = "record"
)

// Event reports progress to an Observer.
type Event struct {
	Stage   Stage
	Message string
	Err     error
}

// Observer receives events as a send progresses.
type Observer func(Event)

// SubjectGenerator picks a subject line.
type SubjectGenerator interface {
	Generate(ctx context.Context, recipientName, companyName, senderName string) subject.Result
}

// Deliverer transmits a composed message.
type Deliverer interface {
	Deliver(ctx context.Context, from string, msg delivery.Message) delivery.Outcome
}

// Recorder stores activity records.
type Recorder interface {
	Append(rec activity.Record) error
}

// Result summarizes a send attempt.
type Result struct {
	Success       bool
	Subject       string
	SubjectSource subject.Source
	SubjectReason string
	Attachment    message.Attachment
	Outcome       delivery.Outcome
	Record        activity.Record
	// LogErr is set when the record could not be written.
	LogErr error
}

// Pipeline sends emails with one configuration.
type Pipeline struct {
	cfg       *config.Config
	subjects  SubjectGenerator
	deliverer Deliverer
	recorder  Recorder
	observer  Observer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithObserver registers an observer for progress events.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// WithSubjectGenerator replaces the subject generator.
func WithSubjectGenerator(g SubjectGenerator) Option {
	return func(p *Pipeline) { p.subjects = g }
}

// WithDeliverer replaces the delivery client.
func WithDeliverer(d Deliverer) Option {
	return func(p *Pipeline) { p.deliverer = d }
}

// WithRecorder replaces the activity log.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// New creates a pipeline wired to the services named in cfg.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: no configuration loaded", config.ErrConfiguration)
	}
	p := &Pipeline{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}

	if p.subjects == nil {
		p.subjects = subject.New(ollama.New(cfg.Ollama.URL, cfg.Ollama.Model))
	}
	if p.deliverer == nil {
		p.deliverer = delivery.New(delivery.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SenderEmail,
			Password: cfg.SenderPassword,
			Timeout:  cfg.SMTP.Timeout,
		})
	}
	if p.recorder == nil {
		p.recorder = activity.Open(cfg.Paths.LogFile)
	}
	return p, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("name")
	})
	return v
}

// ValidateEmail reports whether s is a well-formed email address.
func ValidateEmail(s string) error {
	if err := validate.Var(strings.TrimSpace(s), "required,email"); err != nil {
		return errors.New("invalid email format")
	}
	return nil
}

// Validate checks a request without sending it.
func (r Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, fe.Field())
	}
	return out
}

func (p *Pipeline) emit(stage Stage, msg string, err error) {
	if p.observer != nil {
		p.observer(Event{Stage: stage, Message: msg, Err: err})
	}
}

// Send performs one attempt. A request that fails validation returns a nil
// Result and an error wrapping ErrValidation; nothing is recorded. Template
// and attachment failures return both a Result and the error. A delivery
// failure is reported through Result.Outcome with a nil error.
func (p *Pipeline) Send(ctx context.Context, req Request) (*Result, error) {
	req = normalize(req)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	res := &Result{}

	variant := req.Variant
	if variant == "" {
		variant = p.cfg.Variant()
	}
	text := req.Template
	if text == "" {
		text = p.cfg.EmailTemplate
	}

	body, err := tmpl.Render(text, variant,
		tmpl.NewContext(variant, req.RecipientName, req.CompanyName, p.cfg.SenderName))
	if err != nil {
		err = fmt.Errorf("%w: %w", config.ErrConfiguration, err)
		p.emit(StageRender, "Template rendering failed", err)
		p.fail(res, req, p.failedSubject(req, FailedTemplateSubject), err)
		return res, err
	}
	p.emit(StageRender, fmt.Sprintf("Rendered %s template", variant), nil)

	att, err := message.ReadAttachment(req.ResumePath)
	if err != nil {
		p.emit(StageAttachment, "Resume could not be read", err)
		p.fail(res, req, p.failedSubject(req, FailedAttachmentSubject), err)
		return res, err
	}
	res.Attachment = att
	p.emit(StageAttachment, "Attached "+att.Name, nil)

	if req.CustomSubject != "" {
		res.Subject = req.CustomSubject
		res.SubjectSource = subject.SourceCustom
	} else {
		sr := p.subjects.Generate(ctx, req.RecipientName, req.CompanyName, p.cfg.SenderName)
		res.Subject, res.SubjectSource, res.SubjectReason = sr.Subject, sr.Source, sr.Reason
	}
	p.emit(StageSubject, res.Subject, nil)

	msg, err := message.Compose(message.Input{
		SenderName:     p.cfg.SenderName,
		SenderEmail:    p.cfg.SenderEmail,
		Recipient:      req.RecipientEmail,
		Bcc:            req.Bcc,
		Subject:        res.Subject,
		Body:           body,
		AttachmentPath: req.ResumePath,
	}, att)
	if err != nil {
		p.emit(StageCompose, "Message could not be composed", err)
		p.fail(res, req, res.Subject, err)
		return res, err
	}

	res.Outcome = p.deliverer.Deliver(ctx, p.cfg.SenderEmail, msg)
	res.Success = res.Outcome.Success
	if res.Success {
		p.emit(StageDeliver, "Email sent to "+req.RecipientEmail, nil)
		p.record(res, req, res.Subject, nil)
	} else {
		derr := errors.New(res.Outcome.Error())
		p.emit(StageDeliver, "Delivery failed", derr)
		p.record(res, req, res.Subject, derr)
	}
	return res, nil
}

func (p *Pipeline) failedSubject(req Request, label string) string {
	if req.CustomSubject != "" {
		return req.CustomSubject
	}
	return label
}

func (p *Pipeline) fail(res *Result, req Request, subj string, err error) {
	if res.Subject == "" {
		res.Subject = subj
	}
	p.record(res, req, subj, err)
}

func (p *Pipeline) record(res *Result, req Request, subj string, err error) {
	rec := activity.NewRecord(req.RecipientEmail, req.CompanyName, subj, err)
	rec.Bcc = req.Bcc
	rec.Attachment = res.Attachment.Name
	rec.AttachmentSHA256 = res.Attachment.SHA256
	rec.SubjectSource = string(res.SubjectSource)
	res.Record = rec

	if lerr := p.recorder.Append(rec); lerr != nil {
		res.LogErr = lerr
		log.Warn("Failed to record email activity", "error", lerr)
		p.emit(StageRecord, "Activity could not be recorded", lerr)
		return
	}
	p.emit(StageRecord, "Activity recorded", nil)
}

func normalize(req Request) Request {
	req.RecipientEmail = strings.TrimSpace(req.RecipientEmail)
	req.RecipientName = strings.TrimSpace(req.RecipientName)
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.Bcc = strings.TrimSpace(req.Bcc)
	req.CustomSubject = strings.TrimSpace(req.CustomSubject)
	req.ResumePath = strings.TrimSpace(req.ResumePath)
	return req
}
