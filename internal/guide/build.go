package guide

import (
	"time"

	"github.com/lvstream/eventguide/internal/feed"
	"github.com/lvstream/eventguide/pkg/xmltv"
	"github.com/sirupsen/logrus"
)

// BuildOptions bundle the admission and synthesis settings for one run.
type BuildOptions struct {
	Now          time.Time
	Keywords     []string
	TZOffset     time.Duration
	GraceWindow  time.Duration
	MainDuration time.Duration
	Lang         string
}

// BuildReport aggregates the per-stage reports of a build.
type BuildReport struct {
	Admission *feed.Report
	Synthesis *Report
	Fragments int
}

// Build runs the full pipeline over an in-memory schedule: admit events,
// synthesize the local timeline, and merge the external fragments in front of
// it. It always produces a document, even from an empty or fully malformed
// admitted set.
func Build(f *feed.Feed, fragments []*xmltv.TV, opts BuildOptions, logger logrus.FieldLogger) ([]feed.Admitted, *xmltv.TV, *BuildReport) {
	admitted, admissionReport := feed.Admit(f, feed.Options{
		Now:         opts.Now,
		Keywords:    opts.Keywords,
		TZOffset:    opts.TZOffset,
		GraceWindow: opts.GraceWindow,
	}, logger)

	local, synthesisReport := Synthesize(admitted, Options{
		TZOffset:     opts.TZOffset,
		MainDuration: opts.MainDuration,
		Lang:         opts.Lang,
	}, logger)

	merged := Merge(local, fragments)

	return admitted, merged, &BuildReport{
		Admission: admissionReport,
		Synthesis: synthesisReport,
		Fragments: len(fragments),
	}
}
