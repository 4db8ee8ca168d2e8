package converter

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"
)

// Converter interface defines the contract for a single conversion routine.
// Implementations are stateless and safe for concurrent use.
type Converter interface {
	// Convert transforms input bytes into the target container
	Convert(ctx context.Context, input []byte) (Outcome, error)
	// Name is the label used in error messages, e.g. "PDF to DOCX"
	Name() string
}

// Outcome is the result of one routine call. Degraded is set when the
// routine fell back to a stub instead of a faithful conversion.
type Outcome struct {
	Data     []byte
	Degraded bool
	Warning  string
}

// Request is the transport form of a conversion request
type Request struct {
	FileData string `json:"fileData"`
	FileType string `json:"fileType"`
	Format   string `json:"format"`
	FileName string `json:"fileName"`
}

// Response is the transport form of a successful conversion
type Response struct {
	ConvertedData string `json:"convertedData"`
	FileName      string `json:"fileName"`
	MimeType      string `json:"mimeType"`
	Degraded      bool   `json:"degraded,omitempty"`
	Warning       string `json:"warning,omitempty"`
}

// Job is a conversion request with the file already in memory
type Job struct {
	Data     []byte `json:"fileData"`
	FileType string `json:"fileType"`
	Format   string `json:"format"`
	FileName string `json:"fileName"`
}

// Result is a successful conversion with raw output bytes
type Result struct {
	Data     []byte
	FileName string
	MimeType string
	Degraded bool
	Warning  string
	Elapsed  time.Duration
}

// Dispatcher validates conversion requests and runs exactly one routine
// per request, selected by exact match on the normalized pair.
type Dispatcher struct {
	registry *Registry
	table    map[Pair]Converter
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over the given registry and dispatch
// table. The table is copied; later changes to the argument have no effect.
func NewDispatcher(registry *Registry, table map[Pair]Converter, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	t := make(map[Pair]Converter, len(table))
	for pair, conv := range table {
		t[registry.Normalize(pair)] = conv
	}
	return &Dispatcher{
		registry: registry,
		table:    t,
		logger:   logger,
	}
}

// Registry returns the registry the dispatcher validates against
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Convert validates and performs a transport-level conversion request
func (d *Dispatcher) Convert(ctx context.Context, req *Request) (*Response, error) {
	if err := d.registry.ValidateRequest(req); err != nil {
		return nil, &Error{Kind: KindInvalid, Message: err.Error(), Err: err}
	}

	conv, err := d.lookup(req.FileType, req.Format)
	if err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(req.FileData)
	if err != nil {
		return nil, &Error{Kind: KindInvalid, Message: "fileData: must be valid base64", Err: err}
	}
	if len(data) == 0 {
		return nil, &Error{Kind: KindInvalid, Message: "fileData: cannot be blank", Err: ErrInvalid}
	}

	res, err := d.run(ctx, conv, Job{
		Data:     data,
		FileType: req.FileType,
		Format:   req.Format,
		FileName: req.FileName,
	})
	if err != nil {
		return nil, err
	}

	return &Response{
		ConvertedData: base64.StdEncoding.EncodeToString(res.Data),
		FileName:      res.FileName,
		MimeType:      res.MimeType,
		Degraded:      res.Degraded,
		Warning:       res.Warning,
	}, nil
}

// ConvertJob performs a conversion of in-memory bytes
func (d *Dispatcher) ConvertJob(ctx context.Context, job Job) (*Result, error) {
	if err := d.registry.ValidateJob(&job); err != nil {
		return nil, &Error{Kind: KindInvalid, Message: err.Error(), Err: err}
	}

	conv, err := d.lookup(job.FileType, job.Format)
	if err != nil {
		return nil, err
	}

	return d.run(ctx, conv, job)
}

// lookup checks the pair against the registry and selects its routine
func (d *Dispatcher) lookup(source, format string) (Converter, error) {
	if !d.registry.Supports(source, format) {
		return nil, &Error{
			Kind:    KindInvalid,
			Message: fmt.Sprintf("Conversion from %s to %s is not supported", source, format),
			Err:     ErrUnsupported,
		}
	}

	conv, ok := d.table[d.registry.Normalize(Pair{Source: source, Format: format})]
	if !ok {
		return nil, &Error{Kind: KindNotImplemented, Message: "Conversion not implemented", Err: ErrNotImplemented}
	}
	return conv, nil
}

// run invokes the routine and packages its output
func (d *Dispatcher) run(ctx context.Context, conv Converter, job Job) (*Result, error) {
	start := time.Now()
	out, err := conv.Convert(ctx, job.Data)
	if err == nil && len(out.Data) == 0 {
		err = fmt.Errorf("routine produced no output")
	}
	if err != nil {
		d.logger.Error("conversion failed",
			"converter", conv.Name(),
			"file_type", job.FileType,
			"format", job.Format,
			"error", err,
		)
		return nil, &Error{
			Kind:    KindFailed,
			Message: fmt.Sprintf("Conversion failed: %s conversion failed: %v", conv.Name(), err),
			Err:     err,
		}
	}

	// Both lookups succeed for any pair that passed Supports
	ext, _ := d.registry.Extension(job.Format)
	mimeType, _ := d.registry.CanonicalMediaType(job.Format)

	res := &Result{
		Data:     out.Data,
		FileName: OutputFileName(job.FileName, ext),
		MimeType: mimeType,
		Degraded: out.Degraded,
		Warning:  out.Warning,
		Elapsed:  time.Since(start),
	}

	if out.Degraded {
		d.logger.Warn("conversion degraded",
			"converter", conv.Name(),
			"warning", out.Warning,
		)
	}
	d.logger.Debug("conversion finished",
		"converter", conv.Name(),
		"file_name", res.FileName,
		"bytes", len(res.Data),
		"elapsed", res.Elapsed,
	)

	return res, nil
}
