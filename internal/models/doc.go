package models

// Document is the flat wire shape exchanged with the remote store. The
// "_id" key carries the remote identifier as a hex string.
type Document = map[string]interface{}

var originDevice string

// SetOriginDevice records this installation's device identity. Outbound
// documents carry it so remote copies can be attributed to the writing
// device.
func SetOriginDevice(id string) {
	originDevice = id
}

// StampOrigin tags a document with the writing device's identity. A nil
// document passes through untouched.
func StampOrigin(doc Document) Document {
	if doc != nil && originDevice != "" {
		doc["origin_device"] = originDevice
	}
	return doc
}

func docString(doc Document, key string) string {
	if v, ok := doc[key].(string); ok {
		return v
	}
	return ""
}

func docFloat(doc Document, key string) float64 {
	switch v := doc[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func docInt(doc Document, key string) int64 {
	switch v := doc[key].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func docBool(doc Document, key string) bool {
	if v, ok := doc[key].(bool); ok {
		return v
	}
	return docInt(doc, key) != 0
}

// RemoteIDOf reads the remote identifier from a document.
func RemoteIDOf(doc Document) string {
	return docString(doc, "_id")
}

// LastModifiedOf reads the modification timestamp from a document.
func LastModifiedOf(doc Document) int64 {
	return docInt(doc, "last_modified")
}

// metaToDoc copies the sync timestamps into a document. LocalID and
// SyncStatus are local-only bookkeeping and never travel.
func metaToDoc(m *SyncMeta, doc Document) Document {
	doc["created_at"] = m.CreatedAt
	doc["last_modified"] = m.LastModified
	return doc
}

// metaFromDoc reads the sync timestamps from a remote document. The caller
// stitches RemoteID and decides SyncStatus.
func metaFromDoc(doc Document) SyncMeta {
	return SyncMeta{
		RemoteID:     docString(doc, "_id"),
		CreatedAt:    docInt(doc, "created_at"),
		LastModified: docInt(doc, "last_modified"),
	}
}
