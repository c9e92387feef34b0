package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "blank", input: "   \t ", want: ""},
		{name: "accents stripped", input: "Nguyễn Văn Án", want: "nguyen van an"},
		{name: "d stroke lower", input: "đào", want: "dao"},
		{name: "d stroke upper", input: "ĐÀO", want: "dao"},
		{name: "whitespace collapsed", input: "  Trần   Thị\tBình ", want: "tran thi binh"},
		{name: "ascii untouched", input: "a@x.com", want: "a@x.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_DStrokeEquivalence(t *testing.T) {
	assert.Equal(t, Normalize("dinh tien hoang"), Normalize("Đinh Tiên Hoàng"))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"Đinh Tiên Hoàng",
		"  Lê  Thị Hồng Gấm ",
		"Phường Bến Thành",
		"Ngô Thừa Ân",
		"x́y",
		"ÀÁÂÃÈÉÊÌÍÒÓÔÕÙÚĂĐĨŨƠƯẠẢẤẦẨẪẬẮẰẲẴẶ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "", want: ""},
		{input: "nguyễn văn an", want: "Nguyễn Văn An"},
		{input: "  TRẦN   thị   BÌNH  ", want: "Trần Thị Bình"},
		{input: "đặng", want: "Đặng"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, TitleCase(tt.input))
		})
	}
}

func TestTitleCaseThenNormalize(t *testing.T) {
	assert.Equal(t, Normalize(TitleCase("NGUYỄN  văn an")), Normalize("nguyen van an"))
}

func TestRemoveTones(t *testing.T) {
	assert.Equal(t, "Dinh Tien Hoang Tan Dinh", RemoveTones("Đinh Tiên Hoàng Tân Định"))
}

func TestPhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "", want: ""},
		{input: "0901 111 111", want: "0901111111"},
		{input: "+84 901-111-111", want: "0901111111"},
		{input: "84901111111", want: "0901111111"},
		{input: "(090) 111.1111", want: "0901111111"},
		{input: "901111111", want: "0901111111"},
		{input: " - ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Phone(tt.input))
		})
	}
}
