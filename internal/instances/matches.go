package instances

import (
	"github.com/pkg/errors"
)

// Matches is the result of pairing ground-truth instances with predictions.
//
// GTMatch[j] is the index of the prediction matched to ground truth j, or -1.
// PredMatch[i] is the index of the ground truth matched to prediction i, or
// -1. Overlaps[i][j] is the IoU between prediction i and ground truth j.
type Matches struct {
	GTMatch   []int       `json:"gt_match"`
	PredMatch []int       `json:"pred_match"`
	Overlaps  [][]float64 `json:"overlaps"`
}

// Validate checks the match arrays against the prediction and ground-truth
// counts.
func (m *Matches) Validate(nPred, nGT int) error {
	if len(m.GTMatch) != nGT {
		return errors.Wrapf(ErrShapeMismatch, "gt_match=%d ground truth=%d", len(m.GTMatch), nGT)
	}
	if len(m.PredMatch) != nPred {
		return errors.Wrapf(ErrShapeMismatch, "pred_match=%d predictions=%d", len(m.PredMatch), nPred)
	}
	if len(m.Overlaps) != nPred {
		return errors.Wrapf(ErrShapeMismatch, "overlaps has %d rows, want %d", len(m.Overlaps), nPred)
	}
	for i, row := range m.Overlaps {
		if len(row) != nGT {
			return errors.Wrapf(ErrShapeMismatch, "overlaps row %d has %d columns, want %d", i, len(row), nGT)
		}
	}
	for i, j := range m.PredMatch {
		if j < -1 || j >= nGT {
			return errors.Errorf("pred_match[%d]=%d out of range", i, j)
		}
	}
	for j, i := range m.GTMatch {
		if i < -1 || i >= nPred {
			return errors.Errorf("gt_match[%d]=%d out of range", j, i)
		}
	}
	return nil
}

// MatchedIoU returns the IoU reported for prediction i: the overlap with its
// matched ground truth, or the best overlap with any ground truth when it is
// unmatched. It returns 0 when there is no ground truth at all.
func (m *Matches) MatchedIoU(i int) float64 {
	row := m.Overlaps[i]
	if j := m.PredMatch[i]; j > -1 {
		return row[j]
	}
	best := 0.0
	for k, v := range row {
		if k == 0 || v > best {
			best = v
		}
	}
	return best
}

// Matcher pairs ground-truth instances with predictions.
//
// Implementations live outside this module (typically next to the model's
// evaluation code). Thresholds follow the usual convention: predictions
// scoring below scoreThreshold are ignored and pairs with IoU below
// iouThreshold never match.
type Matcher interface {
	Match(gt, pred *Set, iouThreshold, scoreThreshold float64) (*Matches, error)
}

// StaticMatcher returns a precomputed result. It is how callers that already
// ran matching elsewhere feed it into the visualizers.
type StaticMatcher struct {
	Result *Matches
}

// Match returns the stored result after checking it against gt and pred.
func (s StaticMatcher) Match(gt, pred *Set, _, _ float64) (*Matches, error) {
	if s.Result == nil {
		return nil, errors.New("no precomputed matches")
	}
	if err := s.Result.Validate(pred.Len(), gt.Len()); err != nil {
		return nil, err
	}
	return s.Result, nil
}
