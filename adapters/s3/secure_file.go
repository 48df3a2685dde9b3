package s3

// SecureMIMETypesExtension 定義了允許作為報價附件上傳的檔案類型及其對應的副檔名
// 附件除了產品照片外也接受規格書與認證文件的 PDF
var SecureMIMETypesExtension = map[string]string{
	"image/jpeg":      "jpeg",
	"image/png":       "png",
	"image/gif":       "gif",
	"image/webp":      "webp",
	"application/pdf": "pdf",
}

// CheckSecureFileAndGetExtension 檢查給定的 MIME 類型是否為允許的附件類型，並返回對應的副檔名
func CheckSecureFileAndGetExtension(mimeType string) (bool, string) {
	ext, ok := SecureMIMETypesExtension[mimeType]
	return ok, ext
}
