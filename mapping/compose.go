package mapping

import (
	"context"
	"fmt"
	"os"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/mapresolve/internal/errs"
)

// Compose joins the official and intermediate tables through the obfuscated
// name space.
//
// Classes are visited in official order. A class unknown to the intermediate
// table is skipped. A member is dropped when the intermediate table has no
// entry for it or its stable name equals the obfuscated or public name.
// Classes with nothing retained are not inserted.
func Compose(official *Official, intermediate *Intermediate) *Table {
	t := &Table{classes: make(map[string]ClassMappings)}

	for _, oc := range official.Classes() {
		obf, ok := official.ObfuscatedName(oc.Public)
		if !ok {
			continue
		}
		ic, ok := intermediate.Class(obf)
		if !ok {
			continue
		}

		methods := make(map[string][]string)
		for _, m := range oc.Methods {
			stable, ok := ic.Method(m.Obfuscated, m.Descriptor)
			if !ok || stable == m.Obfuscated || stable == m.Public {
				continue
			}
			if !slices.Contains(methods[m.Public], stable) {
				methods[m.Public] = append(methods[m.Public], stable)
			}
		}

		fields := make(map[string]string)
		for _, f := range oc.Fields {
			stable, ok := ic.Field(f.Obfuscated)
			if !ok || stable == f.Obfuscated || stable == f.Public {
				continue
			}
			fields[f.Public] = stable
		}

		if len(methods) == 0 && len(fields) == 0 {
			continue
		}
		t.classes[oc.Public] = ClassMappings{Methods: methods, Fields: fields}
	}
	return t
}

// Load parses the cached official table and intermediate archive
// concurrently and composes them. Any parse failure aborts the load.
func Load(ctx context.Context, officialPath, archivePath string) (*Table, error) {
	var (
		official     *Official
		intermediate *Intermediate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		f, err := os.Open(officialPath) //nolint:gosec // path comes from the cache store
		if err != nil {
			return &errs.FormatError{Source: officialPath, Err: err}
		}
		defer f.Close()

		o, err := ParseOfficial(f)
		if err != nil {
			return fmt.Errorf("%s: %w", officialPath, err)
		}
		official = o
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		i, err := OpenArchive(archivePath)
		if err != nil {
			return err
		}
		intermediate = i
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Compose(official, intermediate), nil
}
