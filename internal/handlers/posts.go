// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"

	"postflow/internal/models"
	"postflow/internal/registry"
)

const (
	// maxUploadSize is the maximum allowed image upload size (10 MB).
	maxUploadSize = 10 << 20

	// dateField is the accepted layout for the scheduled date.
	dateLayout = time.RFC3339
)

// allowedImageTypes defines MIME types accepted for post images.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// PostsListByClient returns a client's posts ordered by scheduled date.
func (a *Admin) PostsListByClient(w http.ResponseWriter, r *http.Request) {
	clientID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	posts, err := a.posts.ListByClient(clientID)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

// PostsListByCalendar returns a calendar's posts ordered by scheduled date.
func (a *Admin) PostsListByCalendar(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	posts, err := a.posts.ListByCalendar(calendarID)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

// PostGet returns one post by ID.
func (a *Admin) PostGet(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	post, err := a.posts.FindByID(id)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// PostCreate schedules a new post from a multipart form: client_id,
// calendar_id, caption, date (RFC 3339), and the image file. The image is
// mandatory.
func (a *Admin) PostCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "image too large, maximum size is 10 MB")
		return
	}

	clientID, err := uuid.Parse(r.FormValue("client_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid client_id")
		return
	}
	calendarID, err := uuid.Parse(r.FormValue("calendar_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid calendar_id")
		return
	}

	caption := r.FormValue("caption")
	if msg := validateCaption(caption); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	date, err := time.Parse(dateLayout, r.FormValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected RFC 3339")
		return
	}

	image, ok := readImageUpload(w, r)
	if !ok {
		return
	}

	post, err := a.posts.Create(r.Context(), registry.CreatePostInput{
		ClientID:   clientID,
		CalendarID: calendarID,
		Caption:    caption,
		Date:       date,
		Image:      *image,
	})
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	a.invalidatePortal(r.Context(), clientID)
	writeJSON(w, http.StatusCreated, post)
}

// PostUpdate merges changes into a post from a multipart form. All fields
// are optional: caption, date, calendar_id, image. Reassigning the
// calendar re-snapshots its name and color onto the post.
func (a *Admin) PostUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "image too large, maximum size is 10 MB")
		return
	}

	var in registry.UpdatePostInput

	if caption := r.FormValue("caption"); caption != "" {
		if msg := validateCaption(caption); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		in.Caption = &caption
	}

	if raw := r.FormValue("date"); raw != "" {
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, expected RFC 3339")
			return
		}
		in.Date = &date
	}

	if raw := r.FormValue("calendar_id"); raw != "" {
		calendarID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid calendar_id")
			return
		}

		// Snapshot the target calendar's display fields at reassignment
		// time, the same way creation does.
		cal, err := a.calendars.FindByID(calendarID)
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		if cal == nil {
			writeError(w, http.StatusBadRequest, "calendar does not exist")
			return
		}
		in.CalendarID = &calendarID
		in.CalendarName = &cal.Name
		in.CalendarColor = &cal.Color
	}

	if _, _, err := r.FormFile("image"); err == nil {
		image, ok := readImageUpload(w, r)
		if !ok {
			return
		}
		in.Image = image
	}

	post, err := a.posts.Update(r.Context(), id, in)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	a.invalidatePortal(r.Context(), post.ClientID)
	writeJSON(w, http.StatusOK, post)
}

// PostDelete removes a post, its image, and decrements the owning
// client's post count.
func (a *Admin) PostDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	// Resolve the owner before the row disappears.
	post, err := a.posts.FindByID(id)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	if err := a.posts.Delete(r.Context(), id); err != nil {
		writeRegistryError(w, err)
		return
	}

	if post != nil {
		a.invalidatePortal(r.Context(), post.ClientID)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// readImageUpload extracts and validates the "image" part of a multipart
// form. The content type is sniffed from the first 512 bytes, not trusted
// from the client. Writes the error response and returns false on failure.
func readImageUpload(w http.ResponseWriter, r *http.Request) (*registry.ImageUpload, bool) {
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no image provided")
		return nil, false
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		writeError(w, http.StatusRequestEntityTooLarge, "image too large, maximum size is 10 MB")
		return nil, false
	}

	contentType, data, err := sniffAndRead(file)
	if err != nil {
		slog.Error("image read failed", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "failed to read image")
		return nil, false
	}
	if !allowedImageTypes[contentType] {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("file type %q is not allowed", contentType))
		return nil, false
	}

	return &registry.ImageUpload{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, true
}

// sniffAndRead detects the content type from the first 512 bytes and
// returns the full file contents.
func sniffAndRead(file multipart.File) (string, []byte, error) {
	sniffBuf := make([]byte, 512)
	n, err := file.Read(sniffBuf)
	if err != nil && err != io.EOF {
		return "", nil, err
	}
	contentType := http.DetectContentType(sniffBuf[:n])

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", nil, err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return contentType, data, nil
}
