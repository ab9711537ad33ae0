package api

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/solatis/schemamend/internal/repair"
	"google.golang.org/protobuf/types/known/structpb"
)

// ListPlans returns the loaded plans with a content ETag. When the request's
// if_none_match equals the current ETag only the ETag is returned.
func (s *RepairAPIService) ListPlans(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := ParseListPlansRequest(in)
	if err != nil {
		return nil, invalidArgument("%v", err)
	}

	plans := s.engine.Plans()
	etag := computeETag(plans)

	resp := &ListPlansResponse{ETag: etag}
	if req.IfNoneMatch == etag {
		resp.NotModified = true
		return resp.Struct()
	}

	resp.Plans = make([]PlanInfo, len(plans))
	for i, p := range plans {
		resp.Plans[i] = PlanInfo{
			Name:        p.Name,
			Description: p.Description,
			OnError:     string(p.OnError),
			Checksum:    p.Checksum,
			Repairs:     p.Source.Repairs,
		}
	}
	return resp.Struct()
}

// computeETag hashes sorted name:checksum pairs, so the same plan set always
// yields the same ETag regardless of load order.
func computeETag(plans []*repair.CompiledPlan) string {
	ids := make([]string, len(plans))
	for i, p := range plans {
		ids[i] = p.Name + ":" + p.Checksum
	}
	sort.Strings(ids)

	h := sha256.New()
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
