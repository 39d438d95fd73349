package util

import (
	"encoding/base64"

	"github.com/goccy/go-json"
)

type listCursor struct {
	Before uint64 `json:"b"`
}

// EncodeCursor 将分页位置编码为不透明的 Base64 字符串，0 表示没有下一页
func EncodeCursor(before uint64) string {
	if before == 0 {
		return ""
	}
	b, _ := json.Marshal(listCursor{Before: before})
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor 将前端传来的游标解码，空串表示从最新开始
func DecodeCursor(cursor string) (uint64, error) {
	if cursor == "" {
		return 0, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, err
	}
	var c listCursor
	if err = json.Unmarshal(b, &c); err != nil {
		return 0, err
	}
	return c.Before, nil
}
