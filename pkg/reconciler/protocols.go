package reconciler

import (
	"github.com/bridgemeta/bridgemeta/pkg/metadata"
)

// mergeProtocols merges formal and informal protocol bodies. Both kinds
// share the class merge machinery; a protocol additionally names the
// protocol it extends, which must match in every scan.
func (r *run) mergeProtocols() {
	r.out.FormalProtocols = r.mergeProtocolSection(sectionFormalProtocols,
		func(d *metadata.Definitions) map[string]*metadata.Protocol { return d.FormalProtocols })
	r.out.InformalProtocols = r.mergeProtocolSection(sectionInformalProtocols,
		func(d *metadata.Definitions) map[string]*metadata.Protocol { return d.InformalProtocols })
}

func (r *run) mergeProtocolSection(section string, pick func(*metadata.Definitions) map[string]*metadata.Protocol) map[string]*metadata.Protocol {
	scanned := collectSection(r.scans, pick)
	excs := pick(&r.exc.Definitions)

	var out map[string]*metadata.Protocol
	for _, name := range unionNames(scanned, excs) {
		exc := excs[name]
		if exc != nil && exc.Ignore {
			continue
		}

		observations := scanned[name]
		merged := &metadata.Protocol{}
		if len(observations) > 0 {
			implements := make([]string, len(observations))
			var members []memberObs
			for i, o := range observations {
				implements[i] = o.rec.Implements
				members = append(members, memberObs{
					variant:    o.variant,
					methods:    o.rec.Methods,
					properties: o.rec.Properties,
				})
			}

			impl, err := invariantString(entityRef(section, name), "implements", implements)
			if err != nil {
				r.fail(section, name, err)
				continue
			}
			merged.Implements = impl

			var excMethods []*metadata.Method
			var excProps []*metadata.Property
			if exc != nil {
				excMethods = exc.Methods
				excProps = exc.Properties
			}
			merged.Methods = r.mergeMethodSet(section, name, members, excMethods, excProps)
		} else {
			var excMethods []*metadata.Method
			if exc != nil {
				excMethods = exc.Methods
			}
			merged.Methods = r.mergeMethodSet(section, name, nil, excMethods, nil)
			if len(merged.Methods) == 0 {
				continue
			}
		}
		if exc != nil && exc.Implements != "" {
			merged.Implements = exc.Implements
		}

		if out == nil {
			out = make(map[string]*metadata.Protocol)
		}
		out[name] = merged
	}
	return out
}
