package controller

import (
	"bytes"
	"net/http"
	"slices"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/dealmate/agent-backend/common/ctxkey"
	"github.com/dealmate/agent-backend/dto"
	"github.com/dealmate/agent-backend/middleware"
)

var errSheetNotFound = errors.New("sheet not found")

// ParseXLSX returns the cell text of every sheet in a workbook, row by row.
func ParseXLSX(c *gin.Context) {
	lg := gmw.GetLogger(c)

	var req dto.ParseXLSXRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, err)
		return
	}
	if req.FileURL == "" && req.FileBase64 == "" {
		middleware.AbortWithMissing(c, http.StatusBadRequest, "Missing file")
		return
	}

	dealID := dto.DealIDOrUnknown(req.DealID)
	c.Set(ctxkey.DealId, dealID)

	raw, err := loadUserContent(gmw.Ctx(c), req.FileURL, req.FileBase64)
	if err != nil {
		middleware.AbortWithError(c, uploadErrorStatus(err), err)
		return
	}

	sheets, err := parseWorkbook(raw, req.Sheet, req.MaxRows)
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, err)
		return
	}

	lg.Debug("workbook parsed", zap.String("deal_id", dealID), zap.Int("sheets", len(sheets)))
	c.JSON(http.StatusOK, dto.ParseXLSXResponse{
		Status: dto.StatusOK,
		DealID: dealID,
		Sheets: sheets,
	})
}

// parseWorkbook reads the named sheet, or every sheet when only is empty.
// maxRows bounds the rows kept per sheet; zero keeps all of them.
func parseWorkbook(raw []byte, only string, maxRows int) ([]dto.Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "open workbook")
	}
	defer f.Close()

	names := f.GetSheetList()
	if only != "" {
		if !slices.Contains(names, only) {
			return nil, errors.Wrapf(errSheetNotFound, "%q, workbook has %v", only, names)
		}
		names = []string{only}
	}

	sheets := make([]dto.Sheet, 0, len(names))
	for _, name := range names {
		sheet, err := readSheet(f, name, maxRows)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, sheet)
	}
	return sheets, nil
}

func readSheet(f *excelize.File, name string, maxRows int) (dto.Sheet, error) {
	sheet := dto.Sheet{Name: name, Rows: [][]string{}}

	rows, err := f.Rows(name)
	if err != nil {
		return sheet, errors.Wrapf(err, "read sheet %q", name)
	}
	defer rows.Close()

	for rows.Next() {
		if maxRows > 0 && len(sheet.Rows) >= maxRows {
			sheet.Truncated = true
			break
		}
		cols, err := rows.Columns()
		if err != nil {
			return sheet, errors.Wrapf(err, "read row %d of sheet %q", len(sheet.Rows)+1, name)
		}
		if cols == nil {
			cols = []string{}
		}
		sheet.Rows = append(sheet.Rows, cols)
	}
	if err = rows.Error(); err != nil {
		return sheet, errors.Wrapf(err, "iterate sheet %q", name)
	}
	return sheet, nil
}
