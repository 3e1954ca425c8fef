package pdf

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/cli"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/jkellner/faktura-api/internal/application/export"
	"github.com/jkellner/faktura-api/internal/domain"
	"github.com/jkellner/faktura-api/internal/domain/entity"
)

const (
	// AttachmentName is the filename automated recipients look for inside a
	// Factur-X/ZUGFeRD container.
	AttachmentName = "factur-x.xml"

	// maxEmbedBytes caps the embedded XML. Far above any real invoice; a
	// larger document signals corrupted input, not a big invoice.
	maxEmbedBytes = 10 << 20
)

// Composer turns rendered bytes into export artifacts. In hybrid mode it
// embeds the e-invoice XML into the PDF as a named attachment and declares
// the profile in the document properties, so automated recipients can locate
// and trust the machine-readable half.
type Composer struct{}

// NewComposer creates the composer.
func NewComposer() *Composer {
	return &Composer{}
}

// Compose produces the artifact(s) for one export mode. pdfBytes and
// xmlBytes must come from the same export.Document; the composer never
// re-renders or recomputes, it only packages.
func (c *Composer) Compose(mode string, doc *export.Document, pdfBytes, xmlBytes []byte) ([]export.Artifact, error) {
	base := "rechnung_" + doc.Invoice.Number

	switch mode {
	case entity.ExportVisual:
		return []export.Artifact{pdfArtifact(base, pdfBytes)}, nil

	case entity.ExportStructured:
		return []export.Artifact{xmlArtifact(base, xmlBytes)}, nil

	case entity.ExportHybrid:
		hybrid, err := c.embed(pdfBytes, xmlBytes)
		if err != nil {
			return nil, err
		}
		return []export.Artifact{pdfArtifact(base, hybrid)}, nil

	case entity.ExportBoth:
		zipped, err := zipArtifacts(base, pdfBytes, xmlBytes)
		if err != nil {
			return nil, err
		}
		return []export.Artifact{{
			Filename:    base + ".zip",
			ContentType: "application/zip",
			Bytes:       zipped,
		}}, nil

	default:
		return nil, fmt.Errorf("%w: unknown export mode %q", domain.ErrInvalidInput, mode)
	}
}

// embed attaches the XML to the PDF and stamps the container metadata.
// pdfcpu works on files; everything happens in a scoped temp dir that is
// removed on every exit path, so a failed composition leaves no partial
// hybrid file behind.
func (c *Composer) embed(pdfBytes, xmlBytes []byte) ([]byte, error) {
	if len(xmlBytes) == 0 {
		return nil, &domain.EmbeddingError{Reason: "empty e-invoice document"}
	}
	if len(xmlBytes) > maxEmbedBytes {
		return nil, &domain.EmbeddingError{
			Reason: fmt.Sprintf("e-invoice document too large: %d bytes (limit %d)", len(xmlBytes), maxEmbedBytes),
		}
	}

	dir, err := os.MkdirTemp("", "hybrid-*")
	if err != nil {
		return nil, &domain.EmbeddingError{Reason: "create workspace", Cause: err}
	}
	defer os.RemoveAll(dir)

	visualPath := filepath.Join(dir, "visual.pdf")
	xmlPath := filepath.Join(dir, AttachmentName)
	hybridPath := filepath.Join(dir, "hybrid.pdf")

	if err := os.WriteFile(visualPath, pdfBytes, 0o600); err != nil {
		return nil, &domain.EmbeddingError{Reason: "write visual document", Cause: err}
	}
	if err := os.WriteFile(xmlPath, xmlBytes, 0o600); err != nil {
		return nil, &domain.EmbeddingError{Reason: "write e-invoice document", Cause: err}
	}

	conf := model.NewDefaultConfiguration()

	if err := api.AddAttachmentsFile(visualPath, hybridPath, []string{xmlPath}, false, conf); err != nil {
		return nil, &domain.EmbeddingError{Reason: "attach " + AttachmentName, Cause: err}
	}

	// Container metadata: declare the embedded standard so processors know
	// what the attachment is without sniffing it.
	properties := map[string]string{
		"FacturXProfile":    "EN 16931",
		"FacturXVersion":    "1.0",
		"FacturXAttachment": AttachmentName,
	}
	if err := api.AddPropertiesFile(hybridPath, "", properties, conf); err != nil {
		return nil, &domain.EmbeddingError{Reason: "declare container metadata", Cause: err}
	}

	// Verify the attachment really landed: a byte-correct container matters
	// more than a visually correct one.
	names, err := cli.ListAttachmentsFile(hybridPath, conf)
	if err != nil {
		return nil, &domain.EmbeddingError{Reason: "verify container", Cause: err}
	}
	if !containsAttachment(names, AttachmentName) {
		return nil, &domain.EmbeddingError{Reason: AttachmentName + " missing from composed container"}
	}

	hybrid, err := os.ReadFile(hybridPath)
	if err != nil {
		return nil, &domain.EmbeddingError{Reason: "read composed container", Cause: err}
	}
	return hybrid, nil
}

// ExtractEmbedded pulls the e-invoice XML back out of a hybrid container.
// Used by tests and by consumers that received only the PDF.
func (c *Composer) ExtractEmbedded(hybridPDF []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "extract-*")
	if err != nil {
		return nil, fmt.Errorf("pdf: create workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	inPath := filepath.Join(dir, "hybrid.pdf")
	if err := os.WriteFile(inPath, hybridPDF, 0o600); err != nil {
		return nil, fmt.Errorf("pdf: write container: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractAttachmentsFile(inPath, dir, []string{AttachmentName}, conf); err != nil {
		return nil, fmt.Errorf("pdf: extract attachment: %w", err)
	}

	xmlBytes, err := os.ReadFile(filepath.Join(dir, AttachmentName))
	if err != nil {
		return nil, fmt.Errorf("pdf: read extracted attachment: %w", err)
	}
	return xmlBytes, nil
}

func containsAttachment(names []string, want string) bool {
	for _, n := range names {
		// pdfcpu lists entries as "name (size)" or plain names depending on
		// version; match on the prefix.
		if n == want || len(n) > len(want) && n[:len(want)] == want {
			return true
		}
	}
	return false
}

func pdfArtifact(base string, b []byte) export.Artifact {
	return export.Artifact{
		Filename:    base + ".pdf",
		ContentType: "application/pdf",
		Bytes:       b,
	}
}

func xmlArtifact(base string, b []byte) export.Artifact {
	return export.Artifact{
		Filename:    base + ".xml",
		ContentType: "application/xml",
		Bytes:       b,
	}
}

// zipArtifacts packs the structured document and the plain PDF into one ZIP
// stream for the "both" mode.
func zipArtifacts(base string, pdfBytes, xmlBytes []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	entries := []struct {
		name string
		data []byte
	}{
		{base + ".xml", xmlBytes},
		{base + ".pdf", pdfBytes},
	}
	for _, e := range entries {
		fw, err := zw.Create(e.name)
		if err != nil {
			return nil, fmt.Errorf("zip: create entry %s: %w", e.name, err)
		}
		if _, err := fw.Write(e.data); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close archive: %w", err)
	}
	return buf.Bytes(), nil
}
