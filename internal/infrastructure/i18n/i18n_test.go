package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBundle(t *testing.T) *Bundle {
	t.Helper()
	fsys := fstest.MapFS{
		"ru.yaml": {Data: []byte("greet: \"Привет, {name}\"\nonly_ru: \"только\"\nerror:\n  NOT_FOUND: \"Не найдено\"\n")},
		"en.yaml": {Data: []byte("greet: \"Hello, {name}\"\n")},
	}
	b, err := LoadFS(fsys, "ru")
	require.NoError(t, err)
	return b
}

func TestBundle_T(t *testing.T) {
	b := testBundle(t)

	assert.Equal(t, "Hello, Ann", b.T("en", "greet", "name", "Ann"))
	assert.Equal(t, "Привет, Ann", b.T("ru", "greet", "name", "Ann"))
	assert.Equal(t, "только", b.T("en", "only_ru"), "falls back to the default language")
	assert.Equal(t, "missing.key", b.T("en", "missing.key"))
	assert.Equal(t, "Привет, {name}", b.T("de", "greet"))
}

func TestBundle_Error(t *testing.T) {
	b := testBundle(t)

	assert.Equal(t, "Не найдено", b.Error("en", "NOT_FOUND", "x"))
	assert.Equal(t, "raw message", b.Error("en", "SOMETHING_ELSE", "raw message"))
}

func TestBundle_Resolve(t *testing.T) {
	b := testBundle(t)

	tests := []struct {
		header string
		want   string
	}{
		{"", "ru"},
		{"en-US,en;q=0.9", "en"},
		{"ru-RU,ru;q=0.9,en;q=0.8", "ru"},
		{"de-DE,en;q=0.5", "en"},
		{"ja", "ru"},
		{"garbage;;q=x", "ru"},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Resolve(tt.header))
		})
	}
}

func TestLoadFS_MissingFallback(t *testing.T) {
	_, err := LoadFS(fstest.MapFS{"en.yaml": {Data: []byte("a: b\n")}}, "ru")
	assert.Error(t, err)
}

func TestEmbeddedLocalesAreComplete(t *testing.T) {
	b, err := Load("ru")
	require.NoError(t, err)
	assert.Equal(t, []string{"ru", "en"}, b.Languages())

	for key := range b.dict["ru"] {
		_, ok := b.dict["en"][key]
		assert.True(t, ok, "en is missing %s", key)
	}
	for key := range b.dict["en"] {
		_, ok := b.dict["ru"][key]
		assert.True(t, ok, "ru is missing %s", key)
	}

	for _, status := range []string{"new", "pending", "awaiting_payment", "paid", "canceled"} {
		assert.True(t, b.Has("status."+status), status)
	}
	assert.Equal(t, "Статус заказа №3 обновлён → Оплачено",
		b.T("ru", "flash.status_changed", "no", "3", "status", b.T("ru", "status.paid")))
}
