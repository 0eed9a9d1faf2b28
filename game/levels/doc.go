// Package levels provides the level catalog for the Sokoban server.
//
// The levels package handles:
//   - Loading level documents from a directory of .xml files
//   - Caching parsed levels and picking a default one
//   - Listing levels in menu order (level1, level2, ..., level10)
//   - Saving new levels after validating them
//   - Evicting cached levels when their files change on disk
//
// Level Format:
//
//	<?xml version="1.0" encoding="UTF-8"?>
//	<Level name="First Steps" description="One box, one goal">
//	  <Rows>
//	    <Row>#####</Row>
//	    <Row>#P..#</Row>
//	    <Row>#.B.#</Row>
//	    <Row>#..G#</Row>
//	    <Row>#####</Row>
//	  </Rows>
//	</Level>
//
// Usage:
//
//	manager, err := levels.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	level, err := manager.LoadLevel("level2")
//	infos, err := manager.ListLevels()
//
//	go manager.Watch(ctx)
package levels
