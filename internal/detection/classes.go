package detection

// Class is one entry of the fixed labeling palette. The IDs match the
// class IDs the ai-core backend uses in annotation payloads.
type Class struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

var Classes = []Class{
	{ID: 0, Name: "nodule", Color: "#ef4444"},
	{ID: 1, Name: "liver tumor", Color: "#f97316"},
	{ID: 2, Name: "Brain tumor", Color: "#eab308"},
	{ID: 3, Name: "Glioma", Color: "#84cc16"},
	{ID: 4, Name: "Meningioma", Color: "#22c55e"},
	{ID: 5, Name: "Pituitary", Color: "#06b6d4"},
	{ID: 6, Name: "prostate cancer", Color: "#3b82f6"},
	{ID: 7, Name: "Lung Opacity", Color: "#a855f7"},
	{ID: 8, Name: "Tuberculosis", Color: "#ec4899"},
}

// ClassByID returns the palette entry for id, falling back to the
// first class for unknown IDs.
func ClassByID(id int) Class {
	for _, c := range Classes {
		if c.ID == id {
			return c
		}
	}
	return Classes[0]
}
