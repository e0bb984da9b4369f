// Venturescope - Business Opportunity Analytics and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venturescope

package artifact

import (
	"fmt"
	"path/filepath"

	"github.com/tomtom215/venturescope/internal/feature"
	"github.com/tomtom215/venturescope/internal/model"
)

// File names within a bundle directory.
const (
	CodecFile       = "codec.vsa"
	DemandFile      = "demand.vsa"
	CompetitionFile = "competition.vsa"
)

// Bundle is the complete set of frozen parameters the engine needs: the
// feature codec and both model forests, all from the same training run.
type Bundle struct {
	Codec       *feature.Codec
	Demand      *model.Forest
	Competition *model.Forest
}

// SaveBundle writes the codec and both forests to dir. recordCount is the
// catalog size behind the training run, recorded in each artifact's metadata.
func SaveBundle(dir string, codec *feature.Codec, demand, competition *model.Forest, recordCount int) error {
	fp := codec.Fingerprint()

	if err := Save(filepath.Join(dir, CodecFile), Metadata{
		Name:             "codec",
		Kind:             KindCodec,
		CodecFingerprint: fp,
		RecordCount:      recordCount,
	}, codec.Params()); err != nil {
		return err
	}

	for _, m := range []struct {
		file   string
		forest *model.Forest
	}{
		{DemandFile, demand},
		{CompetitionFile, competition},
	} {
		if err := Save(filepath.Join(dir, m.file), Metadata{
			Name:             m.forest.Target,
			Kind:             KindModel,
			CodecFingerprint: fp,
			RecordCount:      recordCount,
		}, m.forest); err != nil {
			return err
		}
	}

	return nil
}

// LoadBundle reads a bundle from dir and checks that every artifact comes
// from the same training run. Any missing, corrupt or mismatched artifact is
// an error; the caller treats it as fatal.
func LoadBundle(dir string) (*Bundle, error) {
	var params feature.Params
	codecMeta, err := Load(filepath.Join(dir, CodecFile), &params)
	if err != nil {
		return nil, err
	}
	if codecMeta.Kind != KindCodec {
		return nil, fmt.Errorf("%w: %s: kind %q, want %q", ErrCorrupt, CodecFile, codecMeta.Kind, KindCodec)
	}

	codec := feature.NewFromParams(params)
	fp := codec.Fingerprint()
	if codecMeta.CodecFingerprint != fp {
		return nil, fmt.Errorf("%w: %s: fingerprint mismatch", ErrCorrupt, CodecFile)
	}

	b := &Bundle{Codec: codec}
	for _, m := range []struct {
		file   string
		target string
		dst    **model.Forest
	}{
		{DemandFile, model.TargetDemand, &b.Demand},
		{CompetitionFile, model.TargetCompetition, &b.Competition},
	} {
		forest := &model.Forest{}
		meta, err := Load(filepath.Join(dir, m.file), forest)
		if err != nil {
			return nil, err
		}
		if meta.Kind != KindModel {
			return nil, fmt.Errorf("%w: %s: kind %q, want %q", ErrCorrupt, m.file, meta.Kind, KindModel)
		}
		if forest.Target != m.target {
			return nil, fmt.Errorf("%w: %s: target %q, want %q", ErrCorrupt, m.file, forest.Target, m.target)
		}
		if forest.CodecFingerprint != fp {
			return nil, fmt.Errorf("artifact: %s was trained with codec %s, stored codec is %s",
				m.file, forest.CodecFingerprint, fp)
		}
		*m.dst = forest
	}

	return b, nil
}
