package s3

import (
	"fmt"
	"io"
)

// ErrSizeLimitType 供 errors.As 比對上傳超限錯誤
var ErrSizeLimitType *SizeLimitError

// SizeLimitError 表示附件內容超出允許的大小上限
type SizeLimitError struct {
	Limit int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("attachment larger than the %s limit", FormatBytes(e.Limit))
}

// NewSizeCappedReader 包裝上傳串流並設定讀取上限，
// 超過上限時回傳 SizeLimitError。和 io.LimitReader
// 不同，超限會回報錯誤而不是默默截斷內容。
func NewSizeCappedReader(r io.Reader, limit int64) io.Reader {
	return &sizeCappedReader{src: r, limit: limit, remaining: limit}
}

type sizeCappedReader struct {
	src       io.Reader
	limit     int64 // 允許的總長度
	remaining int64 // 尚可讀取的長度
}

func (r *sizeCappedReader) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	// 最多只需要比剩餘額度多讀一個位元組
	// 就足以判斷來源是否超限
	if int64(len(p)) > r.remaining+1 {
		p = p[:r.remaining+1]
	}
	n, err = r.src.Read(p)

	// 額度內的讀取照常返回
	if int64(n) <= r.remaining {
		r.remaining -= int64(n)
		return n, err
	}

	// 讀到了額度外的位元組，來源超過上限
	n = int(r.remaining)
	r.remaining = 0
	return n, &SizeLimitError{r.limit}
}
