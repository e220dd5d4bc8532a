package extract

import (
	"testing"

	"github.com/use-agent/docket/models"
)

const detailPage = `
<html><body>
  <h3>Project Details</h3>
  <table>
    <tr><td>  Project   Name : </td><td>  Green  Acres Phase II </td></tr>
    <tr><td>Proposed Date of Completion</td><td>15/03/2024</td></tr>
    <tr><td>Approved Layout</td>
        <td><a id="lnkLayout" href="javascript:__doPostBack('lnkLayout','')">View Layout</a></td></tr>
    <tr><td>Sanction Letter</td>
        <td><a class="btn btn-link" href="javascript:void(0)">Download</a></td></tr>
    <tr><td>Registration Certificate</td>
        <td><a href="/docs/cert-123.pdf">Certificate</a>
            <button>Preview</button></td></tr>
  </table>

  <table>
    <tr><th colspan="2">Promoter Details</th></tr>
    <tr><td>Promoter Name</td><td>Shree Builders</td></tr>
    <tr><td>Office Address</td><td>123 Main St, Raipur, CG 492001</td></tr>
  </table>

  <h4>Building Plan</h4>
  <table>
    <tr>
      <td>Towers</td>
      <td>
        <table>
          <tr><td>Tower A Floors</td><td>12</td></tr>
          <tr><td>Tower B Floors</td><td>9</td></tr>
        </table>
      </td>
    </tr>
  </table>

  <h4>Empty Corner</h4>
  <table><tr><td colspan="2">nothing tabular here</td></tr></table>
</body></html>`

func mustPage(t *testing.T, html string) *models.RawPage {
	t.Helper()
	page, err := Page("PCGRERA250517", html)
	if err != nil {
		t.Fatalf("Page returned error: %v", err)
	}
	return page
}

func findField(t *testing.T, page *models.RawPage, label string) *models.RawField {
	t.Helper()
	for si := range page.Sections {
		for fi := range page.Sections[si].Fields {
			if page.Sections[si].Fields[fi].Label == label {
				return &page.Sections[si].Fields[fi]
			}
		}
	}
	t.Fatalf("field %q not found", label)
	return nil
}

func TestPage_SectionTitles(t *testing.T) {
	page := mustPage(t, detailPage)

	if len(page.Sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(page.Sections))
	}

	wantTitles := []string{"Project Details", "Promoter Details", "Building Plan", "Empty Corner"}
	for i, want := range wantTitles {
		if got := page.Sections[i].Title; got != want {
			t.Errorf("section[%d].Title = %q, want %q", i, got, want)
		}
	}
}

func TestPage_LabelNormalizationAndValues(t *testing.T) {
	page := mustPage(t, detailPage)

	f := findField(t, page, "project name")
	if f.OriginalLabel != "Project Name :" {
		t.Errorf("OriginalLabel = %q", f.OriginalLabel)
	}
	if f.Value != "Green Acres Phase II" {
		t.Errorf("Value = %q, want collapsed whitespace with original casing", f.Value)
	}
}

func TestPage_TriggerHints(t *testing.T) {
	page := mustPage(t, detailPage)

	tests := []struct {
		label        string
		wantSelector string
		wantText     string
	}{
		{"approved layout", "#lnkLayout", "View Layout"},
		{"sanction letter", "a.btn.btn-link", "Download"},
		{"registration certificate", "", "Preview"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			f := findField(t, page, tt.label)
			if f.Trigger == nil {
				t.Fatal("expected a trigger hint")
			}
			if f.Trigger.Selector != tt.wantSelector {
				t.Errorf("Selector = %q, want %q", f.Trigger.Selector, tt.wantSelector)
			}
			if f.Trigger.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", f.Trigger.Text, tt.wantText)
			}
		})
	}
}

func TestPage_ExplicitLinksExcludeScriptHrefs(t *testing.T) {
	page := mustPage(t, detailPage)

	if f := findField(t, page, "approved layout"); len(f.Links) != 0 {
		t.Errorf("javascript: href should not count as an explicit link, got %v", f.Links)
	}

	f := findField(t, page, "registration certificate")
	if len(f.Links) != 1 || f.Links[0] != "/docs/cert-123.pdf" {
		t.Errorf("Links = %v, want the single pdf href", f.Links)
	}
	// The same field also carries a trigger: detection is independent of
	// whether a direct link exists.
	if f.Trigger == nil {
		t.Error("field with both link and Preview button should keep its trigger")
	}
}

func TestPage_NestedTableRowsSurfaceInSection(t *testing.T) {
	page := mustPage(t, detailPage)

	sec := page.Sections[2]
	if len(sec.Fields) != 2 {
		t.Fatalf("nested table should yield 2 fields, got %d", len(sec.Fields))
	}
	if sec.Fields[0].Label != "tower a floors" || sec.Fields[0].Value != "12" {
		t.Errorf("inner row 0 = %q/%q", sec.Fields[0].Label, sec.Fields[0].Value)
	}
}

func TestPage_SectionWithoutRowsYieldsZeroFields(t *testing.T) {
	page := mustPage(t, detailPage)

	sec := page.Sections[3]
	if len(sec.Fields) != 0 {
		t.Errorf("expected zero fields for non-tabular section, got %d", len(sec.Fields))
	}
}

func TestPage_NoTables(t *testing.T) {
	page := mustPage(t, `<html><body><p>maintenance notice</p></body></html>`)
	if len(page.Sections) != 0 {
		t.Errorf("expected no sections, got %d", len(page.Sections))
	}
}

func TestPage_LayoutFingerprintStable(t *testing.T) {
	p1 := mustPage(t, detailPage)
	p2 := mustPage(t, detailPage)
	if p1.Layout != p2.Layout {
		t.Error("identical input should produce identical layout fingerprints")
	}
	if p1.Layout == 0 {
		t.Error("non-empty page should produce a non-zero fingerprint")
	}
}
