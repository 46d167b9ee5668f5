// Package io provides JSON import and export for gardens.
//
// # JSON Format
//
// A garden document lists its beds in order plus optional metadata:
//
//	{
//	  "name": "Backyard",
//	  "zone": "7b",
//	  "beds": [
//	    {
//	      "name": "north",
//	      "rows": 2,
//	      "cols": 2,
//	      "lightLevel": "high",
//	      "cells": ["TOM", "TOM", null, "BAS"],
//	      "allowedCategories": ["vegetable", "herb"]
//	    }
//	  ],
//	  "notes": {"0.3": "pinch flowers"}
//	}
//
// Cells are row-major and must number rows*cols; null marks an empty cell.
// Note keys are "bedIndex.cellIndex" and must reference an existing cell.
//
// # Import
//
// Use [ImportJSON] to read a garden from a file path, or [ReadJSON] to read
// from any io.Reader. Both check the document's structure; plant IDs are
// checked by [garden.Validate] with a catalogue lookup.
//
// # Export
//
// Use [ExportJSON] or [WriteJSON]. Export followed by import yields an equal
// garden.
//
// [Document] is the decoded form, shared with the stores and the HTTP API.
package io
