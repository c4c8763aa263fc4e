package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *MedicineStore {
	t.Helper()
	s, err := NewMedicineStore(filepath.Join(t.TempDir(), "medicine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFindByEitherName(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put(Medicine{
		ChineseName: "普拿疼",
		EnglishName: "Paracetamol",
		Indication:  "退燒止痛",
	}))

	tests := []struct {
		name  string
		query string
	}{
		{"chinese name", "普拿疼"},
		{"english lowercase", "paracetamol"},
		{"english mixed case", "PaRaCeTaMoL"},
		{"surrounding whitespace", "  paracetamol "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := s.Find(tt.query)
			require.NoError(t, err)
			assert.Equal(t, "普拿疼", m.ChineseName)
			assert.Equal(t, "退燒止痛", m.Indication)
		})
	}
}

func TestFindNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Find("沒有這種藥")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Find("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateKeepsFirstRecord(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put(Medicine{ChineseName: "普拿疼", EnglishName: "paracetamol", Indication: "退燒止痛"}))
	require.NoError(t, s.Put(Medicine{ChineseName: "另一種", EnglishName: "paracetamol", Indication: "別的"}))

	m, err := s.Find("paracetamol")
	require.NoError(t, err)
	assert.Equal(t, "普拿疼", m.ChineseName)
}

func TestImportAndCount(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Import([]Medicine{
		{ChineseName: "普拿疼", EnglishName: "paracetamol", Indication: "退燒止痛"},
		{ChineseName: "阿斯匹靈", EnglishName: "aspirin", Indication: "解熱鎮痛"},
	}))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 4, n) // two keys per record

	m, err := s.Find("阿斯匹靈")
	require.NoError(t, err)
	assert.Equal(t, "aspirin", m.EnglishName)
}

func TestRecordWithoutEnglishName(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put(Medicine{ChineseName: "甘草片", Indication: "止咳"}))

	m, err := s.Find("甘草片")
	require.NoError(t, err)
	assert.Equal(t, "止咳", m.Indication)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
