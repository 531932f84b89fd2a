package strategy

import (
	"errors"

	"github.com/MozillaSecurity/lithium/internal/atom"
	"github.com/MozillaSecurity/lithium/internal/oracle"
	"github.com/MozillaSecurity/lithium/internal/verdictcache"
)

// ErrDeferred is returned by strategies whose transform semantics spec
// §4.3.6 leaves unspecified and explicitly permits deferring. The
// speculate/test/accept-or-revert protocol they would run under is
// identical to every other strategy in this package; only the rewrite
// itself (turning a property access or a function argument into a
// synthesized global variable, JavaScript-specific in both cases) is
// left undone here, per the spec's Open Questions.
var ErrDeferred = errors.New("strategy: not implemented, deferred per spec Open Questions")

func init() {
	Register(&replacePropertiesByGlobals{})
	Register(&replaceArgumentsByGlobals{})
}

type replacePropertiesByGlobals struct{}

func (r *replacePropertiesByGlobals) Name() string { return "replace-properties-by-globals" }

func (r *replacePropertiesByGlobals) Run(*atom.Testcase, string, *oracle.Driver, Config, *verdictcache.Cache, func(ProgressEvent)) (Report, error) {
	return Report{}, ErrDeferred
}

type replaceArgumentsByGlobals struct{}

func (r *replaceArgumentsByGlobals) Name() string { return "replace-arguments-by-globals" }

func (r *replaceArgumentsByGlobals) Run(*atom.Testcase, string, *oracle.Driver, Config, *verdictcache.Cache, func(ProgressEvent)) (Report, error) {
	return Report{}, ErrDeferred
}
