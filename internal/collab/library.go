package collab

// The document library is the fixed catalog of shareable company docs.
// Live mode shares the real files behind these ids; mock mode answers
// from the table directly.

type libraryDoc struct {
	id      string
	name    string
	url     string
	docType string
}

var libraryOrder = []string{
	"company-handbook",
	"engineering-handbook",
	"architecture-docs",
	"brand-guidelines",
	"hr-documents",
	"benefits-info",
	"onboarding-checklist",
	"team-directory",
}

var library = map[string]libraryDoc{
	"company-handbook": {
		id:      "doc-handbook-001",
		name:    "📖 ACME Corp — Company Handbook",
		url:     "https://drive.google.com/file/d/mock-handbook/view",
		docType: "document",
	},
	"engineering-handbook": {
		id:      "doc-eng-001",
		name:    "⚙️ Engineering Handbook",
		url:     "https://drive.google.com/file/d/mock-eng-handbook/view",
		docType: "document",
	},
	"architecture-docs": {
		id:      "folder-arch-001",
		name:    "🏗️ Architecture & Design Docs",
		url:     "https://drive.google.com/drive/folders/mock-arch/",
		docType: "folder",
	},
	"brand-guidelines": {
		id:      "doc-brand-001",
		name:    "🎨 Brand Guidelines & Assets",
		url:     "https://drive.google.com/file/d/mock-brand/view",
		docType: "document",
	},
	"hr-documents": {
		id:      "folder-hr-001",
		name:    "📋 HR Documents & Forms",
		url:     "https://drive.google.com/drive/folders/mock-hr/",
		docType: "folder",
	},
	"benefits-info": {
		id:      "doc-benefits-001",
		name:    "🏥 Benefits & Perks Guide",
		url:     "https://drive.google.com/file/d/mock-benefits/view",
		docType: "document",
	},
	"onboarding-checklist": {
		id:      "doc-checklist-001",
		name:    "✅ Onboarding Checklist Template",
		url:     "https://drive.google.com/file/d/mock-checklist/view",
		docType: "spreadsheet",
	},
	"team-directory": {
		id:      "doc-directory-001",
		name:    "👥 Team Directory & Org Chart",
		url:     "https://drive.google.com/file/d/mock-directory/view",
		docType: "spreadsheet",
	},
}

// Library lists the catalog in its fixed order.
func Library() []DocInfo {
	out := make([]DocInfo, 0, len(libraryOrder))
	for _, key := range libraryOrder {
		doc := library[key]
		out = append(out, DocInfo{
			Key:  key,
			ID:   doc.id,
			Name: doc.name,
			URL:  doc.url,
			Type: doc.docType,
		})
	}
	return out
}
