package api

import (
	"fmt"

	"github.com/solatis/schemamend/internal/types"
	"google.golang.org/protobuf/types/known/structpb"
)

// Records travel as JSON text inside the Struct messages: Struct fields are
// unordered maps, and record field order is part of a record's schema.

// RepairRecordsRequest asks for a batch of records to be repaired.
type RepairRecordsRequest struct {
	Plan    string
	Records []string // one JSON object per record
}

// RecordResult is the outcome for one record of a batch.
type RecordResult struct {
	Index  int
	Status string
	Record string // repaired JSON, or the input when failed
	Error  string
}

// RepairRecordsResponse reports a batch outcome.
type RepairRecordsResponse struct {
	RunID          string
	RepairedCount  int
	UnchangedCount int
	FailedCount    int
	Results        []RecordResult
}

// ListPlansRequest optionally carries the ETag of a previous listing.
type ListPlansRequest struct {
	IfNoneMatch string
}

// PlanInfo describes one plan.
type PlanInfo struct {
	Name        string
	Description string
	OnError     string
	Checksum    string
	Repairs     []types.Repair
}

// ListPlansResponse lists plans. NotModified is set, with no plans, when the
// request's IfNoneMatch equals the current ETag.
type ListPlansResponse struct {
	ETag        string
	NotModified bool
	Plans       []PlanInfo
}

// Struct encodes the request.
func (r *RepairRecordsRequest) Struct() (*structpb.Struct, error) {
	records := make([]interface{}, len(r.Records))
	for i, rec := range r.Records {
		records[i] = rec
	}
	return structpb.NewStruct(map[string]interface{}{
		"plan":    r.Plan,
		"records": records,
	})
}

// ParseRepairRecordsRequest decodes and shape-checks a request.
func ParseRepairRecordsRequest(s *structpb.Struct) (*RepairRecordsRequest, error) {
	plan, err := stringField(s, "plan")
	if err != nil {
		return nil, err
	}
	records, err := stringList(s, "records")
	if err != nil {
		return nil, err
	}
	return &RepairRecordsRequest{Plan: plan, Records: records}, nil
}

// Struct encodes the response.
func (r *RepairRecordsResponse) Struct() (*structpb.Struct, error) {
	results := make([]interface{}, len(r.Results))
	for i, res := range r.Results {
		m := map[string]interface{}{
			"index":  res.Index,
			"status": res.Status,
			"record": res.Record,
		}
		if res.Error != "" {
			m["error"] = res.Error
		}
		results[i] = m
	}
	return structpb.NewStruct(map[string]interface{}{
		"run_id":          r.RunID,
		"repaired_count":  r.RepairedCount,
		"unchanged_count": r.UnchangedCount,
		"failed_count":    r.FailedCount,
		"results":         results,
	})
}

// ParseRepairRecordsResponse decodes a response.
func ParseRepairRecordsResponse(s *structpb.Struct) (*RepairRecordsResponse, error) {
	runID, err := stringField(s, "run_id")
	if err != nil {
		return nil, err
	}
	resp := &RepairRecordsResponse{
		RunID:          runID,
		RepairedCount:  intField(s, "repaired_count"),
		UnchangedCount: intField(s, "unchanged_count"),
		FailedCount:    intField(s, "failed_count"),
	}
	for i, v := range s.GetFields()["results"].GetListValue().GetValues() {
		m := v.GetStructValue()
		if m == nil {
			return nil, fmt.Errorf("results[%d] must be an object", i)
		}
		res := RecordResult{Index: intField(m, "index")}
		if res.Status, err = stringField(m, "status"); err != nil {
			return nil, err
		}
		if res.Record, err = stringField(m, "record"); err != nil {
			return nil, err
		}
		if res.Error, err = stringField(m, "error"); err != nil {
			return nil, err
		}
		resp.Results = append(resp.Results, res)
	}
	return resp, nil
}

// Struct encodes the request.
func (r *ListPlansRequest) Struct() (*structpb.Struct, error) {
	m := map[string]interface{}{}
	if r.IfNoneMatch != "" {
		m["if_none_match"] = r.IfNoneMatch
	}
	return structpb.NewStruct(m)
}

// ParseListPlansRequest decodes a request.
func ParseListPlansRequest(s *structpb.Struct) (*ListPlansRequest, error) {
	etag, err := stringField(s, "if_none_match")
	if err != nil {
		return nil, err
	}
	return &ListPlansRequest{IfNoneMatch: etag}, nil
}

// Struct encodes the response.
func (r *ListPlansResponse) Struct() (*structpb.Struct, error) {
	plans := make([]interface{}, len(r.Plans))
	for i, p := range r.Plans {
		repairs := make([]interface{}, len(p.Repairs))
		for j, rep := range p.Repairs {
			tags := make([]interface{}, len(rep.Types))
			for k, t := range rep.Types {
				tags[k] = t
			}
			repairs[j] = map[string]interface{}{
				"path":       rep.Path,
				"array_path": rep.ArrayPath,
				"types":      tags,
				"strict":     rep.Strict,
			}
		}
		plans[i] = map[string]interface{}{
			"name":        p.Name,
			"description": p.Description,
			"on_error":    p.OnError,
			"checksum":    p.Checksum,
			"repairs":     repairs,
		}
	}
	return structpb.NewStruct(map[string]interface{}{
		"etag":         r.ETag,
		"not_modified": r.NotModified,
		"plans":        plans,
	})
}

// ParseListPlansResponse decodes a response.
func ParseListPlansResponse(s *structpb.Struct) (*ListPlansResponse, error) {
	etag, err := stringField(s, "etag")
	if err != nil {
		return nil, err
	}
	resp := &ListPlansResponse{
		ETag:        etag,
		NotModified: s.GetFields()["not_modified"].GetBoolValue(),
	}
	for i, v := range s.GetFields()["plans"].GetListValue().GetValues() {
		m := v.GetStructValue()
		if m == nil {
			return nil, fmt.Errorf("plans[%d] must be an object", i)
		}
		var p PlanInfo
		for key, dst := range map[string]*string{"name": &p.Name, "description": &p.Description, "on_error": &p.OnError, "checksum": &p.Checksum} {
			if *dst, err = stringField(m, key); err != nil {
				return nil, err
			}
		}
		for _, rv := range m.GetFields()["repairs"].GetListValue().GetValues() {
			rm := rv.GetStructValue()
			if rm == nil {
				return nil, fmt.Errorf("plans[%d].repairs must hold objects", i)
			}
			var rep types.Repair
			if rep.Path, err = stringField(rm, "path"); err != nil {
				return nil, err
			}
			if rep.ArrayPath, err = stringField(rm, "array_path"); err != nil {
				return nil, err
			}
			if rep.Types, err = stringList(rm, "types"); err != nil {
				return nil, err
			}
			rep.Strict = rm.GetFields()["strict"].GetBoolValue()
			p.Repairs = append(p.Repairs, rep)
		}
		resp.Plans = append(resp.Plans, p)
	}
	return resp, nil
}

// stringField returns s[key] as a string; absent keys are "".
func stringField(s *structpb.Struct, key string) (string, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return "", nil
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return sv.StringValue, nil
}

// stringList returns s[key] as a list of strings; absent keys are nil.
func stringList(s *structpb.Struct, key string) ([]string, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil, nil
	}
	lv, ok := v.GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, fmt.Errorf("%s must be a list", key)
	}
	out := make([]string, len(lv.ListValue.GetValues()))
	for i, item := range lv.ListValue.GetValues() {
		sv, ok := item.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a string", key, i)
		}
		out[i] = sv.StringValue
	}
	return out, nil
}

// intField returns s[key] as an int; Struct numbers are doubles.
func intField(s *structpb.Struct, key string) int {
	return int(s.GetFields()[key].GetNumberValue())
}
