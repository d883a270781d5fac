package upload

import (
	"html/template"
	"net/http"
)

const uploadFormTemplateText = `
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>{{ .Title }}</title>
</head>
<body>
	<h1>{{ .Title }}</h1>
	<form action="{{ .Action }}" method="post" enctype="multipart/form-data">
		<input type="file" name="{{ .FieldName }}" multiple webkitdirectory mozdirectory>
		<button type="submit">Upload</button>
	</form>
</body>
</html>
`

var uploadFormTemplate = template.Must(template.New("upload-form").Parse(uploadFormTemplateText))

// FormFieldName is the multipart field name the upload form uses.
const FormFieldName = "files"

// UploadForm is the data rendered into the upload page.
type UploadForm struct {
	Title     string
	Action    string
	FieldName string
}

// DefaultUploadForm posts every selected file of a directory to /upload.
var DefaultUploadForm = UploadForm{
	Title:     "Upload Directory (Multiple Files)",
	Action:    "/upload",
	FieldName: FormFieldName,
}

// RenderUploadForm renders the directory upload page.
func RenderUploadForm(w http.ResponseWriter, form UploadForm) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return uploadFormTemplate.Execute(w, form)
}
