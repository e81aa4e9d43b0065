// Package mutation implements the Poisson mutation sampler (C6): one
// process per ancestral region on each edge of an ARG, running from
// parent.age down to child.age.
package mutation

import (
	"github.com/samsledje/compbio/arg"
	"github.com/samsledje/compbio/internal/xrand"
)

// Event records one mutation on the edge child->parent, at genomic
// position pos and time t (measured on the same age scale as the ARG).
type Event struct {
	Child  arg.NodeID
	Parent arg.NodeID
	Pos    float64
	T      float64
}

// SampleMutations draws mutations at rate u (per unit length per
// generation) over every edge of a, independently per ancestral region.
// Within a region of length (b-a), inter-arrival times are exponential
// with rate u*(b-a)/(end-start), drawn descending from parent.age to
// child.age. Order is insertion order: edges in postorder, regions in
// their stored order, events within a region oldest-first.
func SampleMutations(rng xrand.Source, a *arg.ARG, u float64) ([]Event, error) {
	seqlen := a.End - a.Start
	if seqlen <= 0 || u <= 0 {
		return nil, nil
	}

	nodes, err := a.Postorder(nil)
	if err != nil {
		return nil, err
	}

	var events []Event
	for _, n := range nodes {
		parents, err := a.ParentsOf(n.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range parents {
			parentAge, err := a.AgeOf(p)
			if err != nil {
				return nil, err
			}
			dt := parentAge - n.Age
			if dt <= 0 {
				continue
			}

			regions, err := a.GetAncestral(n.ID, nil, &p)
			if err != nil {
				return nil, err
			}
			for _, region := range regions {
				rate := u * region.Len() / seqlen
				if rate <= 0 {
					continue
				}
				t := parentAge
				for {
					t -= xrand.Exponential(rng, rate)
					if t <= n.Age {
						break
					}
					pos := xrand.Uniform(rng, region.Start, region.End)
					events = append(events, Event{Child: n.ID, Parent: p, Pos: pos, T: t})
				}
			}
		}
	}
	return events, nil
}
