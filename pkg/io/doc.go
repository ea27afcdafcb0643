// Package io provides JSON import and export for scan results.
//
// # JSON Format
//
// A report wraps one result per scanned project:
//
//	{
//	  "format_version": 1,
//	  "results": [
//	    {
//	      "id": "5f0c…",
//	      "project_path": "/src/app",
//	      "package_managers": ["npm"],
//	      "packages": [
//	        {"name": "left-pad", "version": "1.3.0", "licenses": ["WTFPL"],
//	         "package_manager": "npm", "provenance": ["npm"], "groups": ["runtime"]}
//	      ],
//	      "roots": [{"name": "left-pad", "version": "1.3.0"}],
//	      "started_at": "2026-01-02T15:04:05Z",
//	      "duration": 1520000000
//	    }
//	  ]
//	}
//
// License names are canonical corpus names and are looked up again on
// import; names missing from the corpus come back as unknown. License file
// contents read during the scan are not exported.
//
// Use [WriteJSON]/[ReadJSON] for any io.Writer/io.Reader and
// [ExportJSON]/[ImportJSON] for files.
package io
