package girocode

import (
	"github.com/jkellner/faktura-api/internal/application/export"
)

// Generator adapts the EPC payload encoder to the export pipeline.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (Generator) Generate(req export.QRRequest) ([]byte, error) {
	payload, err := Payload{
		BIC:        req.BIC,
		Name:       req.Name,
		IBAN:       req.IBAN,
		Amount:     req.Amount,
		Remittance: req.Remittance,
	}.Encode()
	if err != nil {
		return nil, err
	}
	return EncodePNG(payload, req.Size)
}
