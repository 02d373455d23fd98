// Package ocr extracts text from screenshot images by shelling out to the
// tesseract binary.
package ocr
