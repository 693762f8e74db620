package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PDFInfo summarises a PDF read back with pdfcpu.
type PDFInfo struct {
	Pages int
	// EmptyPages lists 1-based pages with no content stream or an empty one.
	EmptyPages []int
	// ContentBytes is the decoded content stream size of each page.
	ContentBytes []int
}

// Inspect parses the PDF in rs and reports its page count and content sizes.
func Inspect(rs io.ReadSeeker) (PDFInfo, error) {
	ctx, err := pdfcpu.Read(rs, model.NewDefaultConfiguration())
	if err != nil {
		return PDFInfo{}, fmt.Errorf("read pdf: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return PDFInfo{}, fmt.Errorf("page count: %w", err)
	}

	info := PDFInfo{Pages: ctx.PageCount, ContentBytes: make([]int, ctx.PageCount)}
	for i := 1; i <= ctx.PageCount; i++ {
		pageDict, _, _, err := ctx.PageDict(i, false)
		if err != nil {
			return PDFInfo{}, fmt.Errorf("page %d dict: %w", i, err)
		}
		obj, found := pageDict.Find("Contents")
		if !found {
			info.EmptyPages = append(info.EmptyPages, i)
			continue
		}
		data, err := pageContent(ctx, obj)
		if err != nil {
			return PDFInfo{}, fmt.Errorf("page %d content stream: %w", i, err)
		}
		info.ContentBytes[i-1] = len(data)
		if len(bytes.TrimSpace(data)) == 0 {
			info.EmptyPages = append(info.EmptyPages, i)
		}
	}
	return info, nil
}

// pageContent concatenates the decoded streams behind a page's Contents
// entry. Nested arrays are flattened in order.
func pageContent(ctx *model.Context, contents types.Object) ([]byte, error) {
	var out []byte
	pending := []types.Object{contents}
	for len(pending) > 0 {
		obj, err := ctx.Dereference(pending[0])
		if err != nil {
			return nil, err
		}
		pending = pending[1:]

		switch v := obj.(type) {
		case types.Array:
			pending = append(append([]types.Object{}, v...), pending...)
		case types.StreamDict:
			if err := v.Decode(); err != nil {
				return nil, fmt.Errorf("decode stream: %w", err)
			}
			out = append(out, v.Content...)
			out = append(out, '\n')
		default:
			return nil, fmt.Errorf("contents entry is %T, not a stream", obj)
		}
	}
	return out, nil
}
