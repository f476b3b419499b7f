package arib

import (
	"errors"
	"fmt"
)

// Status is a result code reported by a Transform or Card. Negative values
// are failures. Status implements error so engines can return it directly or
// wrapped.
type Status int

// Failure codes reported by ARIB STD-B25 engines.
const (
	StatusInvalidParam      Status = -1
	StatusNoEnoughMemory    Status = -2
	StatusNonTSInputStream  Status = -3
	StatusNoPATInHead16M    Status = -4
	StatusNoPMTInHead32M    Status = -5
	StatusNoECMInHead32M    Status = -6
	StatusEmptyBCASCard     Status = -7
	StatusInvalidBCASStatus Status = -8
	StatusECMProcFailure    Status = -9
	StatusDecryptFailure    Status = -10
	StatusPATParseFailure   Status = -11
	StatusPMTParseFailure   Status = -12
	StatusECMParseFailure   Status = -13
	StatusCATParseFailure   Status = -14
	StatusEMMParseFailure   Status = -15
	StatusEMMProcFailure    Status = -16
)

var statusNames = map[Status]string{
	StatusInvalidParam:      "invalid param",
	StatusNoEnoughMemory:    "no enough memory",
	StatusNonTSInputStream:  "non-TS input stream",
	StatusNoPATInHead16M:    "no PAT in head 16M",
	StatusNoPMTInHead32M:    "no PMT in head 32M",
	StatusNoECMInHead32M:    "no ECM in head 32M",
	StatusEmptyBCASCard:     "empty B-CAS card",
	StatusInvalidBCASStatus: "invalid B-CAS status",
	StatusECMProcFailure:    "ECM proc failure",
	StatusDecryptFailure:    "decrypt failure",
	StatusPATParseFailure:   "PAT parse failure",
	StatusPMTParseFailure:   "PMT parse failure",
	StatusECMParseFailure:   "ECM parse failure",
	StatusCATParseFailure:   "CAT parse failure",
	StatusEMMParseFailure:   "EMM parse failure",
	StatusEMMProcFailure:    "EMM proc failure",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	if s < 0 {
		return fmt.Sprintf("unknown failure %d", int(s))
	}
	return fmt.Sprintf("status %d", int(s))
}

func (s Status) Error() string {
	return fmt.Sprintf("arib: %s (code=%d)", s.String(), int(s))
}

// StatusOf extracts the Status carried by err. A nil error maps to 0 and an
// error that carries no Status maps to StatusInvalidParam, so a failure is
// always reported with a negative code.
func StatusOf(err error) Status {
	if err == nil {
		return 0
	}
	var s Status
	if errors.As(err, &s) {
		return s
	}
	return StatusInvalidParam
}
