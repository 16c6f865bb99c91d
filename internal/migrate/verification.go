package migrate

import (
	"fmt"
	"strings"

	"github.com/temirov/lakemove/internal/catalog"
)

const (
	remediationTemplateConstant = "Try running the '%s' step"
	locationSeparatorConstant   = "/"
)

// LocationStatus conveys whether the re-registered table points at the requested location.
type LocationStatus struct {
	Matched     bool
	Actual      string
	Expected    string
	Remediation string
}

// LocationVerifier compares the reported table location to the requested one.
type LocationVerifier struct{}

// Verify compares by exact string equality. A mismatch is reported with a remediation hint and never fails, since
// the platform may have normalized the path, for example by appending a trailing slash.
func (LocationVerifier) Verify(detail catalog.TableDetail, expected string) LocationStatus {
	status := LocationStatus{
		Matched:  detail.Location == expected,
		Actual:   detail.Location,
		Expected: expected,
	}
	if !status.Matched {
		status.Remediation = fmt.Sprintf(remediationTemplateConstant, StepRegisterTable.Title())
	}
	return status
}

// locationsOverlap reports whether one location is the other or lies beneath it. Dropping or purging the
// original would then remove the clone as well.
func locationsOverlap(currentLocation string, newLocation string) bool {
	trimmedCurrent := strings.TrimRight(strings.TrimSpace(currentLocation), locationSeparatorConstant)
	trimmedNew := strings.TrimRight(strings.TrimSpace(newLocation), locationSeparatorConstant)
	if len(trimmedCurrent) == 0 || len(trimmedNew) == 0 {
		return false
	}
	if trimmedCurrent == trimmedNew {
		return true
	}
	return strings.HasPrefix(trimmedNew, trimmedCurrent+locationSeparatorConstant) ||
		strings.HasPrefix(trimmedCurrent, trimmedNew+locationSeparatorConstant)
}
