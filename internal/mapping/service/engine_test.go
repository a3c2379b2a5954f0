package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldmap-service/internal/embed"
	"fieldmap-service/internal/ingest"
	"fieldmap-service/internal/mapping/model"
	"fieldmap-service/internal/schema"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New([]schema.Field{
		{Name: "FIRST_NAME", Type: schema.TypeString, Required: true},
		{Name: "LAST_NAME", Type: schema.TypeString, Required: true},
		{Name: "EMAIL", Type: schema.TypeString, Multivalue: true, Aliases: []string{"WorkEmails"}},
		{Name: "DEPARTMENT", Type: schema.TypeString},
	})
	require.NoError(t, err)
	return s
}

func testEngine(t *testing.T, s *schema.Schema) *Engine {
	t.Helper()
	m, err := embed.Load(0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	eng, err := New(s, m, model.DefaultOptions())
	require.NoError(t, err)
	return eng
}

func stringFields(names ...string) []model.SourceField {
	out := make([]model.SourceField, len(names))
	for i, n := range names {
		out[i] = model.NewSourceField(ingest.ColumnProfile{Name: n, Index: i, Type: schema.TypeString})
	}
	return out
}

func TestMapEndToEnd(t *testing.T) {
	eng := testEngine(t, testSchema(t))
	sources := stringFields("FirstName", "LastName", "WorkEmails", "xyz_code")

	res, err := eng.Map(context.Background(), sources, eng.Options())
	require.NoError(t, err)

	require.Len(t, res.Assignments, 3)

	first, ok := res.TargetFor("FIRST_NAME")
	require.True(t, ok)
	assert.Equal(t, "FirstName", first.Source)
	assert.Equal(t, model.MethodExact, first.Method)
	assert.InDelta(t, 1.0, first.Confidence, 1e-9)

	last, ok := res.TargetFor("LAST_NAME")
	require.True(t, ok)
	assert.Equal(t, "LastName", last.Source)
	assert.Equal(t, model.MethodExact, last.Method)

	email, ok := res.TargetFor("EMAIL")
	require.True(t, ok)
	assert.Equal(t, "WorkEmails", email.Source)
	assert.Equal(t, model.MethodAlias, email.Method)
	assert.InDelta(t, 0.95, email.Confidence, 1e-9)

	assert.Equal(t, []string{"xyz_code"}, res.UnmappedSources)
	assert.Equal(t, []string{"DEPARTMENT"}, res.UnmappedTargets)

	for _, a := range res.Assignments {
		assert.GreaterOrEqual(t, a.Confidence, 0.95)
	}
	assert.InDelta(t, (1.0+1.0+0.95)/3, res.Confidence, 1e-9)
}

func TestMapOneToOneInvariant(t *testing.T) {
	eng := testEngine(t, testSchema(t))
	// several columns all gravitating towards EMAIL
	sources := stringFields("email", "work_email", "EmailAddress", "mail_2")

	res, err := eng.Map(context.Background(), sources, eng.Options())
	require.NoError(t, err)

	seenSrc := map[string]bool{}
	seenTgt := map[string]bool{}
	for _, a := range res.Assignments {
		assert.False(t, seenSrc[a.Source], "source %s assigned twice", a.Source)
		assert.False(t, seenTgt[a.Target], "target %s assigned twice", a.Target)
		seenSrc[a.Source] = true
		seenTgt[a.Target] = true
	}
}

func TestMapConfidenceBounds(t *testing.T) {
	eng := testEngine(t, testSchema(t))
	sources := stringFields("first_name", "surname_of_employee", "emial", "division")

	opt := eng.Options()
	res, err := eng.Map(context.Background(), sources, opt)
	require.NoError(t, err)

	for _, a := range res.Assignments {
		assert.GreaterOrEqual(t, a.Confidence, opt.Threshold)
		assert.LessOrEqual(t, a.Confidence, 1.0)
	}
}

func TestMapAliasAnyCaseVariant(t *testing.T) {
	s, err := schema.New([]schema.Field{
		{Name: "CANDIDATE_ID", Type: schema.TypeString, Aliases: []string{"PersonID"}},
		{Name: "DEPARTMENT", Type: schema.TypeString},
	})
	require.NoError(t, err)
	eng := testEngine(t, s)

	for _, variant := range []string{"personid", "PERSON_ID", "Person-Id"} {
		res, err := eng.Map(context.Background(), stringFields(variant), eng.Options())
		require.NoError(t, err)
		require.Len(t, res.Assignments, 1, "variant %q", variant)
		a := res.Assignments[0]
		assert.Equal(t, "CANDIDATE_ID", a.Target)
		assert.Equal(t, model.MethodAlias, a.Method)
		assert.InDelta(t, 0.95, a.Confidence, 1e-9)
	}
}

func TestMapFuzzyCatchesTypos(t *testing.T) {
	eng := testEngine(t, testSchema(t))
	res, err := eng.Map(context.Background(), stringFields("emial"), eng.Options())
	require.NoError(t, err)

	require.Len(t, res.Assignments, 1)
	a := res.Assignments[0]
	assert.Equal(t, "EMAIL", a.Target)
	assert.Equal(t, model.MethodFuzzy, a.Method)
	assert.GreaterOrEqual(t, a.Confidence, fuzzyScoreFloor)
	assert.LessOrEqual(t, a.Confidence, fuzzyScoreCeil)
}

func TestMapTypeMismatchPenalized(t *testing.T) {
	s, err := schema.New([]schema.Field{
		{Name: "HIRE_DATE", Type: schema.TypeDatetime},
		{Name: "NOTES", Type: schema.TypeString},
	})
	require.NoError(t, err)
	eng := testEngine(t, s)

	// exact name match, but the column profiled as plain string against
	// a datetime target: 1.0 * 0.8
	src := []model.SourceField{model.NewSourceField(ingest.ColumnProfile{Name: "hire_date", Index: 0, Type: schema.TypeString})}
	res, err := eng.Map(context.Background(), src, eng.Options())
	require.NoError(t, err)

	require.Len(t, res.Assignments, 1)
	a := res.Assignments[0]
	assert.Equal(t, "HIRE_DATE", a.Target)
	assert.Equal(t, model.MethodExact, a.Method)
	assert.InDelta(t, 0.8, a.Confidence, 1e-9)
}

func TestMapHonorsCancellation(t *testing.T) {
	eng := testEngine(t, testSchema(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// a source with no syntactic match forces the semantic stage, which
	// must abort before the resolver runs
	_, err := eng.Map(ctx, stringFields("zzz_qqq"), eng.Options())
	assert.ErrorIs(t, err, context.Canceled)
}
