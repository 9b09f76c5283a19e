// Package dbn implements Design By Numbers, a drawing language on a
// 100x100 grayscale canvas.
//
//	Paper 0
//	Pen 100
//	Repeat A 0 100 {
//	  Line A 0 100 A
//	}
//
// Levels run from 0 (white) to 100 (black) and the y axis points up.
// Keywords are accepted capitalized or lowercase.
//
// GeneratePNG and GenerateGIF are the engine entry points: they return an
// image data URI, or every diagnostic joined by newlines in the form
// "file:line:col: message".
package dbn
