package model_test

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/northlux/securelab/internal/domain/model"
)

func TestEnums(t *testing.T) {
	Convey("Given the category enumeration", t, func() {
		Convey("Every listed category is valid", func() {
			for _, c := range model.Categories() {
				So(c.Valid(), ShouldBeTrue)
			}
		})

		Convey("Unknown categories are rejected", func() {
			So(model.Category("weather").Valid(), ShouldBeFalse)
			So(model.Category("").Valid(), ShouldBeFalse)
		})

		Convey("The default is news", func() {
			So(model.DefaultCategory, ShouldEqual, model.CategoryNews)
		})
	})

	Convey("Given the severity enumeration", t, func() {
		Convey("Every listed severity is valid", func() {
			for _, s := range model.Severities() {
				So(s.Valid(), ShouldBeTrue)
			}
		})

		Convey("Unknown severities are rejected", func() {
			So(model.Severity("urgent").Valid(), ShouldBeFalse)
		})

		Convey("The default is medium", func() {
			So(model.DefaultSeverity, ShouldEqual, model.SeverityMedium)
		})
	})
}

func TestDefaultImportOptions(t *testing.T) {
	Convey("Import options default to dedup and enrichment enabled", t, func() {
		opts := model.DefaultImportOptions()
		So(opts.SkipDuplicates, ShouldBeTrue)
		So(opts.AutoEnrich, ShouldBeTrue)
	})
}

func TestImportSummaryJSON(t *testing.T) {
	Convey("Given an import summary", t, func() {
		summary := model.ImportSummary{
			Imported: 2,
			Skipped:  1,
			Errors:   []string{},
			Details: []model.ImportResult{
				{Title: "First", Status: model.StatusImported},
				{Title: "Second", Status: model.StatusSkipped, Error: model.ReasonDuplicateURL},
			},
		}

		raw, err := json.Marshal(summary)
		So(err, ShouldBeNil)

		Convey("Then the wire shape keeps errors as an array even when empty", func() {
			var decoded map[string]interface{}
			So(json.Unmarshal(raw, &decoded), ShouldBeNil)
			So(decoded["imported"], ShouldEqual, float64(2))
			So(decoded["skipped"], ShouldEqual, float64(1))
			So(decoded["errors"], ShouldNotBeNil)
			So(decoded["errors"], ShouldBeEmpty)
		})
	})
}
