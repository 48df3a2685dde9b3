package s3_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"bazar/adapters/s3"
)

func TestSizeCappedReader(t *testing.T) {
	tests := []struct {
		name       string
		input      []byte
		limit      int64
		wantN      int
		wantErr    bool
		wantErrMsg string
	}{
		{
			name:    "讀取小於限制的內容",
			input:   []byte("hello"),
			limit:   10,
			wantN:   5,
			wantErr: false,
		},
		{
			name:       "讀取超過限制的內容",
			input:      []byte("hello world"),
			limit:      5,
			wantN:      5,
			wantErr:    true,
			wantErrMsg: "attachment larger than the 5 bytes limit",
		},
		{
			name:    "讀取剛好等於限制的內容",
			input:   []byte("hello"),
			limit:   5,
			wantN:   5,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := s3.NewSizeCappedReader(bytes.NewReader(tt.input), tt.limit)
			buf := make([]byte, len(tt.input))
			n, err := reader.Read(buf)

			assert.Equal(t, tt.wantN, n)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantErrMsg, err.Error())
				assert.True(t, errors.As(err, &s3.ErrSizeLimitType))
			} else {
				assert.True(t, err == nil || err == io.EOF)
			}
		})
	}
}
