// Package alignment materializes per-leaf sequences from an ARG's
// mutation list (C7): one character per integer site, derived under the
// marginal subtree rooted at each mutation's child.
package alignment

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/samsledje/compbio/arg"
	"github.com/samsledje/compbio/mutation"
)

// MakeAlignment builds one sequence per leaf over the integer sites
// [0, floor(end-start)). A site with no mutation is ancestral everywhere;
// a site with a mutation is derived at every leaf descending (in the
// marginal tree at that position) from the mutation's child, ancestral
// elsewhere. Multiple mutations at the same site: later ones (by sorted
// order) overwrite earlier ones' effect — unspecified which "wins" beyond
// that sort order, per the source behavior this mirrors.
func MakeAlignment(a *arg.ARG, mutations []mutation.Event, ancestralChar, derivedChar byte) (map[string]string, error) {
	leafNames, err := a.LeafNames(nil)
	if err != nil {
		return nil, err
	}

	sites := int(math.Floor(a.End - a.Start))
	seqs := make(map[string][]byte, len(leafNames))
	for _, name := range leafNames {
		row := make([]byte, sites)
		for i := range row {
			row[i] = ancestralChar
		}
		seqs[string(name)] = row
	}

	sorted := append([]mutation.Event(nil), mutations...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Pos < sorted[j].Pos })

	byIndex := make(map[int]mutation.Event, len(sorted))
	for _, m := range sorted {
		idx := int(math.Floor(m.Pos))
		if idx < 0 || idx >= sites {
			continue
		}
		byIndex[idx] = m
	}

	for site, m := range byIndex {
		derivedLeaves, err := descendantLeafNames(a, m.Child, m.Pos)
		if err != nil {
			return nil, err
		}
		derivedSet := make(map[Name]bool, len(derivedLeaves))
		for _, n := range derivedLeaves {
			derivedSet[n] = true
		}
		for _, name := range leafNames {
			if derivedSet[name] {
				seqs[string(name)][site] = derivedChar
			}
		}
	}

	out := make(map[string]string, len(seqs))
	for name, row := range seqs {
		out[name] = string(row)
	}
	return out, nil
}

// Name mirrors arg.Name locally so descendantLeafNames' map key type
// doesn't need to import arg just for a type alias at call sites.
type Name = arg.Name

// descendantLeafNames finds every leaf beneath child in the marginal tree
// evaluated at pos.
func descendantLeafNames(a *arg.ARG, child arg.NodeID, pos float64) ([]Name, error) {
	margin, err := a.GetMarginalTree(pos)
	if err != nil {
		return nil, err
	}
	childName, err := a.NameOf(child)
	if err != nil {
		return nil, err
	}
	if _, err := margin.Resolve(childName); err != nil {
		// child isn't part of this marginal tree (its material doesn't
		// survive to pos); nothing is derived.
		return nil, nil
	}
	return margin.LeafNames(&childName)
}

// SequenceWriter emits one leaf's name/sequence pair, mirroring the
// teacher's streaming solution-writer shape for large outputs.
type SequenceWriter interface {
	WriteSequence(name, sequence string) error
}

// WriteAll writes every sequence in seqs to w, ordered by leaf name for
// determinism.
func WriteAll(w SequenceWriter, seqs map[string]string) error {
	names := make([]string, 0, len(seqs))
	for n := range seqs {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if err := w.WriteSequence(n, seqs[n]); err != nil {
			return err
		}
	}
	return nil
}

// FastaWriter writes sequences in FASTA format.
type FastaWriter struct {
	W io.Writer
}

func (f FastaWriter) WriteSequence(name, sequence string) error {
	_, err := fmt.Fprintf(f.W, ">%s\n%s\n", name, sequence)
	return err
}
